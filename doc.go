// Package dpmeans implements DP-means clustering and its mini-batch
// (streaming) counterpart.
//
// DP-means extends Lloyd's k-means iteration: instead of fixing the number of
// clusters up front, a new cluster is spawned whenever a point's squared
// distance to every existing center exceeds the growth threshold Delta. The
// objective being minimized is the inertia (sum of squared distances to the
// assigned centers) plus Delta times the number of clusters.
//
// Basic usage:
//
//	cfg := dpmeans.DefaultConfig()
//	cfg.Delta = 1.0
//	result, err := dpmeans.Cluster(data, cfg)
//	// result.Labels[i] is the cluster ID for point i
//	// result.Centers[k] is the center of cluster k
//	// result.Objective is inertia + Delta*len(result.Centers)
//
// For data that arrives in chunks, use a MiniBatch and feed it batches:
//
//	mb, err := dpmeans.NewMiniBatch(cfg)
//	for _, batch := range batches {
//		report, err := mb.PartialFit(batch)
//		if report.Stabilized {
//			break
//		}
//	}
//
// FitStream replays a whole in-memory dataset as a sequence of fixed-size
// batches and returns a Result like Cluster does.
//
// # Restarts
//
// Both Cluster and FitStream run Config.NInit independent restarts, each with
// its own random source derived from Config.Seed, and keep the restart with
// the lowest objective. Restarts run concurrently on up to Config.Workers
// goroutines; the outcome does not depend on scheduling.
package dpmeans
