// Package charges drives Multiwfn's population analysis menu and collects
// atomic charges into an NPZ archive.
//
// Each requested method runs as its own Multiwfn pass and all passes must
// agree on the atom list. The MBIS method additionally yields atomic
// dipoles and quadrupoles, parsed from its multipole sidecar file.
package charges
