// Package device implements the device registry for AquaSense Core.
//
// Devices are created implicitly by status messages (the registry is the
// sole creator of device records; sensor messages for unknown devices are
// rejected upstream) or explicitly via AllocateID for new field units.
// Status and firmware follow last-writer-wins semantics; the location
// label and per-field enable flags are set by the configuration path via
// UpdateProfile.
package device
