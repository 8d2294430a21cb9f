// Package grids exports grid-based properties (electrostatic potential,
// van der Waals potential) through Multiwfn's spatial-grid menu and culls
// the resulting point clouds.
//
// Export runs one Multiwfn pass per property over the same grid settings,
// parses the grid geometry from stdout (Multiwfn prints it in Bohr), loads
// the four-column point file the binary writes, and packs everything into
// an NPZ archive together with the molecular geometry. Filter reads such
// an archive back and drops points by distance to atoms or by property
// value, optionally downsampling what remains.
package grids
