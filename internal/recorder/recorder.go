package recorder

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	resampling "github.com/tphakala/go-audio-resampling"
)

// Recorder is an offline output sink. Once the engine hands it a render
// function it pulls buffers as fast as they can be synthesized, without
// wall-clock pacing, until Stop is called or the maximum length is reached.
type Recorder struct {
	mu        sync.Mutex
	buf       []float32
	recording bool
	done      chan struct{} // closed when renderLoop should exit
	loopDone  chan struct{} // closed when renderLoop has exited
	sampleSR  float64
	frames    int
	maxFrames int
	truncated bool
	level     uint64 // atomic float64 bits; RMS of last chunk (0.0–1.0)
}

// New creates a Recorder that synthesizes at sampleRate in chunks of
// framesPerBuffer and captures at most maxDuration of audio.
func New(sampleRate float64, framesPerBuffer int, maxDuration time.Duration) (*Recorder, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %v", sampleRate)
	}
	if maxDuration <= 0 {
		return nil, fmt.Errorf("invalid duration %v", maxDuration)
	}
	if framesPerBuffer <= 0 {
		framesPerBuffer = 512
	}
	return &Recorder{
		sampleSR:  sampleRate,
		frames:    framesPerBuffer,
		maxFrames: int(math.Round(sampleRate * maxDuration.Seconds())),
	}, nil
}

// SampleRate returns the synthesis rate.
func (r *Recorder) SampleRate() float64 {
	return r.sampleSR
}

// Begin starts pulling audio from render. Returns an error if already
// recording.
func (r *Recorder) Begin(render func(out []float32)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return fmt.Errorf("already recording")
	}

	r.buf = make([]float32, 0, min(r.maxFrames, int(r.sampleSR)*60))
	r.truncated = false
	r.recording = true
	r.done = make(chan struct{})
	r.loopDone = make(chan struct{})

	go r.renderLoop(render, r.done, r.loopDone)

	return nil
}

func (r *Recorder) renderLoop(render func(out []float32), done, loopDone chan struct{}) {
	defer close(loopDone)
	chunk := make([]float32, r.frames)

	for {
		select {
		case <-done:
			return
		default:
		}

		r.mu.Lock()
		n := min(len(chunk), r.maxFrames-len(r.buf))
		r.mu.Unlock()

		render(chunk[:n])
		atomic.StoreUint64(&r.level, math.Float64bits(computeRMS(chunk[:n])))

		r.mu.Lock()
		r.buf = append(r.buf, chunk[:n]...)
		if len(r.buf) >= r.maxFrames {
			r.truncated = true
			r.recording = false
			r.mu.Unlock()
			return
		}
		r.mu.Unlock()
	}
}

// End stops the render loop and returns once render will not be called
// again. The captured audio stays available through Samples and Export.
func (r *Recorder) End() {
	r.mu.Lock()
	r.recording = false
	done := r.done
	loopDone := r.loopDone
	r.done = nil
	r.mu.Unlock()

	if done != nil {
		close(done)
	}
	if loopDone != nil {
		<-loopDone
	}
	atomic.StoreUint64(&r.level, math.Float64bits(0))
}

// Wait blocks until the maximum length has been captured or End is called.
func (r *Recorder) Wait() {
	r.mu.Lock()
	loopDone := r.loopDone
	r.mu.Unlock()
	if loopDone != nil {
		<-loopDone
	}
}

// IsRecording returns whether the render loop is running.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Truncated reports whether capture stopped because the maximum length
// was reached.
func (r *Recorder) Truncated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.truncated
}

// Samples returns a copy of the captured audio.
func (r *Recorder) Samples() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float32, len(r.buf))
	copy(out, r.buf)
	return out
}

// Export converts the captured audio to 16-bit PCM, resamples it to
// targetRate if that differs from the synthesis rate, and encodes it as a
// mono WAV file.
func (r *Recorder) Export(targetRate int) ([]byte, error) {
	samples := ToPCM16(r.Samples())
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio captured")
	}
	if targetRate <= 0 {
		targetRate = int(r.sampleSR)
	}

	// Resample using polyphase FIR if needed
	if int(r.sampleSR) != targetRate {
		resampled, err := Resample(samples, r.sampleSR, float64(targetRate))
		if err != nil {
			return nil, fmt.Errorf("resample: %w", err)
		}
		samples = resampled
	}

	wavData, err := EncodeWAV(samples, targetRate)
	if err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	return wavData, nil
}

// Level returns the RMS amplitude of the most recently rendered chunk,
// in the range [0.0, 1.0]. Safe to call from any goroutine.
func (r *Recorder) Level() float64 {
	return math.Float64frombits(atomic.LoadUint64(&r.level))
}

// computeRMS computes the root-mean-square of float samples in [-1, 1].
func computeRMS(buf []float32) float64 {
	if len(buf) == 0 {
		return 0
	}
	var sum float64
	for _, s := range buf {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(buf)))
}

// ToPCM16 converts float samples in [-1, 1] to int16, clipping anything
// outside that range.
func ToPCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, f := range samples {
		v := float64(f) * 32767.0
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		out[i] = int16(math.Round(v))
	}
	return out
}

// Resample converts PCM int16 samples from inputRate to outputRate using
// polyphase FIR filtering with Kaiser window (via go-audio-resampling).
// The QualityLow preset keeps 16-bit precision, which is all the WAV export
// carries.
func Resample(samples []int16, inputRate, outputRate float64) ([]int16, error) {
	if inputRate == outputRate || len(samples) == 0 {
		return samples, nil
	}

	// Convert int16 to float64 (normalized to -1.0..1.0)
	floats := make([]float64, len(samples))
	for i, s := range samples {
		floats[i] = float64(s) / 32768.0
	}

	resampled, err := resampling.ResampleMono(floats, inputRate, outputRate, resampling.QualityLow)
	if err != nil {
		return nil, fmt.Errorf("resample mono: %w", err)
	}

	// Convert back to int16
	out := make([]int16, len(resampled))
	for i, f := range resampled {
		v := f * 32768.0
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		out[i] = int16(math.Round(v))
	}

	return out, nil
}

// downmix averages interleaved frames of the given channel count into
// one mono sample each. A trailing partial frame is dropped.
func downmix(samples []int16, channels int) []int16 {
	mono := make([]int16, len(samples)/channels)
	for i := range mono {
		var sum int32
		for _, v := range samples[i*channels : (i+1)*channels] {
			sum += int32(v)
		}
		mono[i] = int16(sum / int32(channels))
	}
	return mono
}

// writeSeeker is an in-memory io.WriteSeeker for WAV encoding.
type writeSeeker struct {
	buf []byte
	pos int
}

func (ws *writeSeeker) Write(p []byte) (int, error) {
	end := ws.pos + len(p)
	if end > len(ws.buf) {
		ws.buf = append(ws.buf, make([]byte, end-len(ws.buf))...)
	}
	copy(ws.buf[ws.pos:], p)
	ws.pos = end
	return len(p), nil
}

func (ws *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var newPos int
	switch whence {
	case 0: // io.SeekStart
		newPos = int(offset)
	case 1: // io.SeekCurrent
		newPos = ws.pos + int(offset)
	case 2: // io.SeekEnd
		newPos = len(ws.buf) + int(offset)
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if newPos < 0 || newPos > len(ws.buf) {
		return 0, fmt.Errorf("seek position %d out of bounds [0, %d]", newPos, len(ws.buf))
	}
	ws.pos = newPos
	return int64(ws.pos), nil
}

// EncodeWAV encodes mono int16 PCM samples to WAV format in memory.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	ws := &writeSeeker{}

	intBuf := &audio.IntBuffer{
		Data: make([]int, len(samples)),
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: 1,
		},
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		intBuf.Data[i] = int(s)
	}

	enc := wav.NewEncoder(ws, sampleRate, 16, 1, 1)
	if err := enc.Write(intBuf); err != nil {
		return nil, fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close wav encoder: %w", err)
	}

	return ws.buf, nil
}

// DecodeWAV returns the samples and rate of a 16-bit WAV file. Files with
// more than one channel are folded down to mono.
func DecodeWAV(data []byte) ([]int16, int, error) {
	reader := bytes.NewReader(data)
	dec := wav.NewDecoder(reader)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid WAV file")
	}

	pcmBuf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav: %w", err)
	}

	samples := make([]int16, len(pcmBuf.Data))
	for i, v := range pcmBuf.Data {
		samples[i] = int16(v)
	}
	if ch := int(dec.NumChans); ch > 1 {
		samples = downmix(samples, ch)
	}

	return samples, int(dec.SampleRate), nil
}

// ValidateWAVHeader reads minimal WAV header info from data.
func ValidateWAVHeader(data []byte) (sampleRate int, channels int, bitDepth int, err error) {
	if len(data) < 44 {
		return 0, 0, 0, fmt.Errorf("data too short for WAV header")
	}

	r := bytes.NewReader(data)

	// read wraps binary.Read to capture the first error.
	var firstErr error
	read := func(v interface{}) {
		if firstErr != nil {
			return
		}
		firstErr = binary.Read(r, binary.LittleEndian, v)
	}

	var riffID [4]byte
	read(&riffID)
	if firstErr != nil {
		return 0, 0, 0, fmt.Errorf("read RIFF header: %w", firstErr)
	}
	if string(riffID[:]) != "RIFF" {
		return 0, 0, 0, fmt.Errorf("not a RIFF file")
	}

	var fileSize uint32
	read(&fileSize)

	var waveID [4]byte
	read(&waveID)
	if firstErr != nil {
		return 0, 0, 0, fmt.Errorf("read WAVE header: %w", firstErr)
	}
	if string(waveID[:]) != "WAVE" {
		return 0, 0, 0, fmt.Errorf("not a WAVE file")
	}

	var fmtID [4]byte
	read(&fmtID)

	var fmtSize uint32
	read(&fmtSize)

	var audioFormat uint16
	read(&audioFormat)

	var numChannels uint16
	read(&numChannels)

	var sr uint32
	read(&sr)

	var byteRate uint32
	var blockAlign uint16
	read(&byteRate)
	read(&blockAlign)

	var bitsPerSample uint16
	read(&bitsPerSample)

	if firstErr != nil {
		return 0, 0, 0, fmt.Errorf("read WAV format: %w", firstErr)
	}

	return int(sr), int(numChannels), int(bitsPerSample), nil
}
