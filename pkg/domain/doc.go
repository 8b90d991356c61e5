// Package domain defines the core types of the cellstack library: the cell
// capability contract, state shapes, the recurrent state tree, lifecycle
// events and the error taxonomy. It has no dependencies beyond the tensor
// runtime so every other package can depend on it freely.
package domain
