// Package camera holds the depth-camera side of the tracker: frame pairs
// and the FrameSource collaborator that supplies them, pinhole intrinsics,
// the depth sampler that reads a colour pixel's depth out of the (possibly
// lower resolution) depth image, and pinhole back-projection to 3D.
package camera
