// Package estimation defines a pluggable migration duration calculator.
//
// Each part of the calculation is encapsulated in one specific Calculator, and calculation results are
// aggregated by the Engine. The concrete calculators live in the calculators package; the estimator
// package turns inventory and project settings into Params and reads the two duration models back.
package estimation
