// Package skeleton defines the body-tracking data model shared by the
// tracker stages: pose landmarks coming out of the estimator, smoothed 3D
// joints, and the SkeletonFrame that is streamed to downstream consumers.
//
// Joint indices follow the MediaPipe pose topology (33 landmarks). The index
// is the only key used to line up smoother state, frame joints and angle
// metrics; slice position is never used as an identifier.
package skeleton
