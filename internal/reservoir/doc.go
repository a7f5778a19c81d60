// Package reservoir implements an echo-state network: a fixed random
// recurrent layer driven by a system trajectory plus a linear readout fitted
// by ridge regression.
//
// A Computer has two modes. Train drives it with ground truth (teacher
// forcing); Predict drives it with its own readout (autonomous rollout). The
// recurrent state carries over from Train into Predict and is never reset
// implicitly.
package reservoir
