// Package npz reads and writes NumPy archive files.
//
// An archive is a ZIP container holding one .npy entry per array, the
// layout np.savez_compressed produces. The writer emits NPY format 1.0
// headers with C-order data in the three dtypes the toolkit needs:
// '<i8', '<f8' and '<U#' (UCS-4 strings). Values with no array
// representation - boxed fallback columns, the per-record provenance -
// are stored as .json sidecar entries instead of pickled object arrays,
// so archives stay loadable with allow_pickle=False.
//
// The reader handles exactly what the writer produces plus format 2.0/3.0
// headers; anything else (fortran order, big-endian, pickled objects) is
// rejected with a descriptive error.
package npz
