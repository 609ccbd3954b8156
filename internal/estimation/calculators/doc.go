// Package calculators provides concrete Calculator implementations for the estimation engine.
//
// TransferBandwidth and Cutover together form the bandwidth model, SchedulingSlot is the
// independent slot model, and PostMigrationChecks is an advisory figure reported on its own.
// Calculators are composed via the estimation.Engine and accept input through estimation.Param slices.
package calculators
