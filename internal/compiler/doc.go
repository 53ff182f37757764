// Package compiler turns CUE catalog data into a catalog.Catalog.
//
// Catalog data is authored as CUE files with three top-level structs
// keyed by ID - recipe, tier, and module - plus an optional items
// struct extending the built-in intermediate/fluid allow-lists:
//
//	recipe: "iron-gear": {
//		name:     "Iron Gear Wheel"
//		category: "assembling"
//		time:     0.5
//		inputs: [{item: "iron-plate", qty: 2}]
//		outputs: [{item: "iron-gear-wheel", qty: 1}]
//	}
//
//	tier: "assembler-1": {
//		name:        "Assembling Machine 1"
//		category:    "assembling"
//		speed:       0.5
//		moduleSlots: 0
//	}
//
//	module: "speed-1": {
//		name:       "Speed Module"
//		type:       "speed"
//		level:      1
//		quality:    "normal"
//		speedBonus: 0.2
//	}
//
// Compilation uses the CUE SDK's Go API directly (not a CLI
// subprocess) and reports errors with source positions. The loader
// supports fail-fast (first error stops) and collect-all (gather every
// error for one validation report) modes.
package compiler
