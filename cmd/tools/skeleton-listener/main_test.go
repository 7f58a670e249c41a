package main

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/motion.report/internal/skeleton"
)

func testFrame() *skeleton.SkeletonFrame {
	return &skeleton.SkeletonFrame{
		FrameIndex: 42,
		Joints: []skeleton.Joint{
			{ID: skeleton.Nose, Position: skeleton.Position{X: 0, Y: -0.4, Z: 1.5}, Visibility: 0.99},
			{ID: skeleton.LeftWrist, Position: skeleton.Position{X: 0.25, Y: 0.1, Z: 1.4567}, Visibility: 0.8},
		},
	}
}

func TestDescribeJoint(t *testing.T) {
	f := testFrame()
	assert.Equal(t, ", joint 15 at (0.250, 0.100, 1.457) m vis 0.80", describeJoint(f, skeleton.LeftWrist))
	assert.Empty(t, describeJoint(f, skeleton.RightAnkle))
	assert.Empty(t, describeJoint(&skeleton.SkeletonFrame{Joints: []skeleton.Joint{}}, skeleton.LeftWrist))
}

func TestSummaryLine(t *testing.T) {
	assert.Equal(t,
		"Received: 30 frames/sec, last frame 42 with 2 joints, joint 0 at (0.000, -0.400, 1.500) m vis 0.99",
		summaryLine(30, testFrame(), skeleton.Nose))
	assert.Equal(t, "Received: 3 frames/sec", summaryLine(3, nil, skeleton.Nose))
}

func TestFrameLine(t *testing.T) {
	from := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5065}
	assert.Equal(t, "127.0.0.1:5065 frame=42 joints=2", frameLine(from, testFrame(), skeleton.RightKnee))
}
