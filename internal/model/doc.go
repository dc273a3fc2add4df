// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package model defines the anomaly model capability shared by per-user and
global models, and the interchangeable variants that implement it.

A Model maps a feature vector to a risk in [0,1], higher meaning more
anomalous. Models are immutable once trained and safe for concurrent use.
A Trainer builds a Model from a set of sample vectors. Variants are
selected by name:

  - baseline: per-feature mean and floored standard deviation, risk
    derived from the root-mean-square z-score.
  - iforest: isolation forest over standardized features, seeded for
    reproducible training.

Every model serializes through the same Envelope codec so profiles and
the global checkpoint can persist any variant without knowing which one
it is.

Example:

	tr, err := model.NewTrainer(model.AlgorithmBaseline, model.Options{})
	if err != nil {
		return err
	}
	m, err := tr.Train(ctx, history, 1)
	if err != nil {
		return err
	}
	risk := m.Score(vec)
*/
package model
