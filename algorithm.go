package dpmeans

// Init selects how initial centers are drawn for each restart.
type Init string

const (
	InitKMeansPlusPlus Init = "k-means++"
	InitRandom         Init = "random"
	InitMean           Init = "mean"
)

// PartialBatch selects what the streaming driver does with the trailing
// points that do not fill a whole batch.
type PartialBatch string

const (
	// PartialBatchKeep feeds the remainder as a shorter terminal batch.
	PartialBatchKeep PartialBatch = "keep"
	// PartialBatchDiscard drops the remainder.
	PartialBatchDiscard PartialBatch = "discard"
)

// Status describes how a run ended.
type Status string

const (
	// StatusConverged: the batch fixed point was reached.
	StatusConverged Status = "converged"
	// StatusMaxIterReached: the batch engine hit MaxIter first. Not an error;
	// the state at the cap is returned.
	StatusMaxIterReached Status = "max_iter_reached"
	// StatusStabilized: the streaming no-improvement streak hit its limit.
	StatusStabilized Status = "stabilized"
	// StatusExhausted: the streaming driver ran out of epochs first.
	StatusExhausted Status = "exhausted"
)

// validateInit checks that the seeding strategy can produce the requested
// number of initial centers.
func validateInit(cfg *Config) error {
	switch cfg.Init {
	case InitKMeansPlusPlus, InitRandom:
		return nil
	case InitMean:
		if cfg.InitialClusters != 1 {
			return invalidInputf("Init %q produces exactly one center, InitialClusters is %d", cfg.Init, cfg.InitialClusters)
		}
		return nil
	default:
		return invalidInputf("invalid Init %q", cfg.Init)
	}
}
