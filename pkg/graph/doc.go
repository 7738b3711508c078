// Package graph defines the design graph for gearsim.
// The design graph is an immutable description of gears, the meshes that
// join them, the drives that turn them and the trains that group them.
// It is produced by evaluating a scene source and consumed by the scene
// builder.
package graph
