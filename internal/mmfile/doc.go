// Package mmfile provides platform-specific helpers for memory-mapping backing files.
//
// On unix systems files are mapped with MAP_SHARED. Elsewhere the file is read into
// memory and, for writable mappings, written back by the returned cleanup.
package mmfile
