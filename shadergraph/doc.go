// Package shadergraph is an in-memory shading node graph.
//
// A Tree holds typed nodes (image samplers, mixers, math, ramps, groups,
// shaders, ...) connected by links from output sockets to input sockets.
// Every input accepts at most one link; unlinked inputs use their
// default value. Group nodes instance another Tree whose interface is
// declared with DeclareInput and DeclareOutput.
//
// Trees are built by generators, not edited by hand, so no cycle
// detection is performed. A Library stores named group trees and the
// per-material trees they are instanced into.
package shadergraph
