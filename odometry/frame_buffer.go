package odometry

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/lidarodometry/pointcloud"
)

// StreamKind identifies one of the six inputs of a processing cycle.
type StreamKind int

// The input streams. Feature clouds are expected to be ordered by ring.
const (
	StreamSharpCorners StreamKind = iota
	StreamLessSharpCorners
	StreamFlatSurfaces
	StreamLessFlatSurfaces
	StreamFullResolution
	StreamAuxiliary
	numStreams
)

func (k StreamKind) String() string {
	switch k {
	case StreamSharpCorners:
		return "sharp_corners"
	case StreamLessSharpCorners:
		return "less_sharp_corners"
	case StreamFlatSurfaces:
		return "flat_surfaces"
	case StreamLessFlatSurfaces:
		return "less_flat_surfaces"
	case StreamFullResolution:
		return "full_resolution"
	case StreamAuxiliary:
		return "auxiliary"
	}
	return "unknown"
}

// SyncTolerance bounds the spread between the oldest and newest stamp of a frame. The spread
// must stay strictly below it.
const SyncTolerance = 5 * time.Millisecond

var (
	// ErrUnknownStream is returned when submitting to a stream kind that does not exist.
	ErrUnknownStream = errors.New("unknown stream kind")
	// ErrFramePending is returned when a stream still holds a submission that was not consumed.
	ErrFramePending = errors.New("stream holds an unconsumed submission")
)

// Frame is one synchronized set of inputs.
type Frame struct {
	SharpCorners     pointcloud.Cloud
	LessSharpCorners pointcloud.Cloud
	FlatSurfaces     pointcloud.Cloud
	LessFlatSurfaces pointcloud.Cloud
	FullResolution   pointcloud.Cloud
	Auxiliary        AuxiliaryMotion
	// Stamp is the stamp of the less flat surface stream.
	Stamp time.Time
}

// FrameBuffer holds the latest submission of every stream until the engine consumes a
// synchronized set. Each submission is consumed at most once: a stream refuses new submissions
// while it still holds a fresh one.
type FrameBuffer struct {
	mu     sync.Mutex
	clouds [numStreams]pointcloud.Cloud
	aux    AuxiliaryMotion
	stamps [numStreams]time.Time
	fresh  [numStreams]bool
}

// NewFrameBuffer returns an empty buffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Submit stores a cloud for the given stream and marks it fresh. Auxiliary motion may be
// submitted in its four point cloud encoding.
func (fb *FrameBuffer) Submit(kind StreamKind, cloud pointcloud.Cloud, stamp time.Time) error {
	if kind < 0 || kind >= numStreams {
		return errors.Wrapf(ErrUnknownStream, "%d", kind)
	}
	if kind == StreamAuxiliary {
		aux, err := AuxiliaryMotionFromCloud(cloud)
		if err != nil {
			return err
		}
		return fb.SubmitAuxiliary(aux, stamp)
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.fresh[kind] {
		return errors.Wrap(ErrFramePending, kind.String())
	}
	fb.clouds[kind] = cloud
	fb.stamps[kind] = stamp
	fb.fresh[kind] = true
	return nil
}

// SubmitAuxiliary stores the auxiliary motion hint and marks it fresh.
func (fb *FrameBuffer) SubmitAuxiliary(aux AuxiliaryMotion, stamp time.Time) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.fresh[StreamAuxiliary] {
		return errors.Wrap(ErrFramePending, StreamAuxiliary.String())
	}
	fb.aux = aux
	fb.stamps[StreamAuxiliary] = stamp
	fb.fresh[StreamAuxiliary] = true
	return nil
}

// IsReady returns true if all streams are fresh and aligned in time.
func (fb *FrameBuffer) IsReady() bool {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.isReady()
}

func (fb *FrameBuffer) isReady() bool {
	oldest, newest := fb.stamps[0], fb.stamps[0]
	for kind := StreamKind(0); kind < numStreams; kind++ {
		if !fb.fresh[kind] {
			return false
		}
		if stamp := fb.stamps[kind]; stamp.Before(oldest) {
			oldest = stamp
		} else if stamp.After(newest) {
			newest = stamp
		}
	}
	return newest.Sub(oldest) < SyncTolerance
}

// Consume hands out the buffered frame and clears every freshness flag. It returns false, and
// leaves the buffer untouched, when the buffer is not ready.
func (fb *FrameBuffer) Consume() (Frame, bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if !fb.isReady() {
		return Frame{}, false
	}
	for kind := range fb.fresh {
		fb.fresh[kind] = false
	}
	frame := Frame{
		SharpCorners:     fb.clouds[StreamSharpCorners],
		LessSharpCorners: fb.clouds[StreamLessSharpCorners],
		FlatSurfaces:     fb.clouds[StreamFlatSurfaces],
		LessFlatSurfaces: fb.clouds[StreamLessFlatSurfaces],
		FullResolution:   fb.clouds[StreamFullResolution],
		Auxiliary:        fb.aux,
		Stamp:            fb.stamps[StreamLessFlatSurfaces],
	}
	for kind := range fb.clouds {
		fb.clouds[kind] = nil
	}
	return frame, true
}

// Pending returns whether the stream holds a fresh submission.
func (fb *FrameBuffer) Pending(kind StreamKind) bool {
	if kind < 0 || kind >= numStreams {
		return false
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.fresh[kind]
}

// Discard drops the fresh submission of a stream, if any.
func (fb *FrameBuffer) Discard(kind StreamKind) {
	if kind < 0 || kind >= numStreams {
		return
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.fresh[kind] = false
	if kind != StreamAuxiliary {
		fb.clouds[kind] = nil
	}
}

// DiscardStale drops fresh submissions older than the newest fresh submission by at least
// SyncTolerance, so producers that fell out of step can resynchronize. It returns the number of
// dropped submissions.
func (fb *FrameBuffer) DiscardStale() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	var newest time.Time
	for kind := StreamKind(0); kind < numStreams; kind++ {
		if fb.fresh[kind] && fb.stamps[kind].After(newest) {
			newest = fb.stamps[kind]
		}
	}
	dropped := 0
	for kind := StreamKind(0); kind < numStreams; kind++ {
		if fb.fresh[kind] && newest.Sub(fb.stamps[kind]) >= SyncTolerance {
			fb.fresh[kind] = false
			if kind != StreamAuxiliary {
				fb.clouds[kind] = nil
			}
			dropped++
		}
	}
	return dropped
}
