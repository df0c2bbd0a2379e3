// Package compile turns a layer stack into shading graphs.
//
// For every channel kind used by visible layers the Compiler emits one
// group tree named "<KIND>_Group_<material>" with the outputs Result and
// Alpha (plus Normal for the normal channel). Layers are chained bottom to
// top through blend nodes; alpha coverage grows through a running maximum.
// Adjustment layers that follow a base layer are spliced between its image
// sampler and its blend node.
//
// Ramp and custom sub-graph nodes carry artist state. They are tracked by
// the layer's NodeToken in an IdentityMap and survive rebuilds; every other
// node is regenerated.
//
// Unless the stack uses the custom shader mode, the compiled groups are
// then installed into the material tree of the stack's material.
package compile
