package audio

import (
	"context"
	"io"
	"math"
	"mime"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	zlog "github.com/rs/zerolog/log"
)

const (
	resampleQuality = 4
	minVolumeLog2   = -10.0
)

// Config represents speaker configuration.
type Config struct {
	SampleRate      int           // Output sample rate in Hz
	BufferSize      time.Duration // Speaker buffer length
	DownloadTimeout time.Duration // Timeout for fetching a clip
}

// Speaker is a Device that renders clips on the local sound card.
// Clips are downloaded and decoded in full before playback starts.
type Speaker struct {
	config     Config
	sampleRate beep.SampleRate
	httpClient *http.Client

	initOnce sync.Once
	initErr  error
}

// NewSpeaker creates a new speaker device. The sound card is opened lazily on first use.
func NewSpeaker(cfg Config) *Speaker {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 250 * time.Millisecond
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = 15 * time.Second
	}
	return &Speaker{
		config:     cfg,
		sampleRate: beep.SampleRate(cfg.SampleRate),
		httpClient: &http.Client{},
	}
}

func (s *Speaker) init() error {
	s.initOnce.Do(func() {
		s.initErr = speaker.Init(s.sampleRate, s.sampleRate.N(s.config.BufferSize))
		if s.initErr == nil {
			zlog.Debug().Msgf("audio: speaker initialized: rate=%d buffer=%v", s.sampleRate, s.config.BufferSize)
		}
	})
	return s.initErr
}

// Open acquires a handle for the clip at url. No audio is fetched until Play.
func (s *Speaker) Open(url string, listener Listener) (Handle, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("clip url is required")
	}
	if err := s.init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize speaker")
	}
	if listener == nil {
		listener = func(Signal, error) {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &clip{
		speaker:  s,
		url:      url,
		listener: listener,
		ctx:      ctx,
		cancel:   cancel,
		volume:   1,
	}, nil
}

// fetch downloads and decodes a clip into a buffer at the speaker sample rate.
func (s *Speaker) fetch(ctx context.Context, url string) (*beep.Buffer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.DownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to download clip")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Newf("failed to download clip: status %d", resp.StatusCode)
	}

	streamer, format, err := decode(resp.Header.Get("Content-Type"), url, resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}
	defer streamer.Close()

	buffer := beep.NewBuffer(beep.Format{SampleRate: s.sampleRate, NumChannels: 2, Precision: 2})
	var src beep.Streamer = streamer
	if format.SampleRate != s.sampleRate {
		src = beep.Resample(resampleQuality, format.SampleRate, s.sampleRate, streamer)
	}
	buffer.Append(src)
	if err := streamer.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to decode clip")
	}
	if buffer.Len() == 0 {
		return nil, errors.New("clip is empty")
	}

	return buffer, nil
}

// decode picks a decoder from the content type, falling back to the URL extension.
func decode(contentType, url string, rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	var streamer beep.StreamSeekCloser
	var format beep.Format
	var err error

	switch clipFormat(contentType, url) {
	case "mp3":
		streamer, format, err = mp3.Decode(rc)
	case "wav":
		streamer, format, err = wav.Decode(rc)
	default:
		return nil, beep.Format{}, errors.Newf("unsupported clip format: content_type=%q url=%s", contentType, url)
	}
	if err != nil {
		return nil, beep.Format{}, errors.Wrap(err, "failed to decode clip")
	}
	return streamer, format, nil
}

// clipFormat returns "mp3", "wav" or "" for unsupported formats.
func clipFormat(contentType, url string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "audio/mpeg", "audio/mp3", "audio/mpeg3":
			return "mp3"
		case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
			return "wav"
		}
	}

	// Preview CDNs often answer with a generic content type
	clean := strings.Split(url, "?")[0]
	switch strings.ToLower(path.Ext(clean)) {
	case ".mp3":
		return "mp3"
	case ".wav":
		return "wav"
	}
	if strings.Contains(clean, "mp3-preview") {
		return "mp3"
	}
	return ""
}

// volumeLevel converts a linear volume in [0,1] to a base-2 exponent for effects.Volume.
func volumeLevel(v float64) (level float64, silent bool) {
	if v <= 0 {
		return minVolumeLog2, true
	}
	if v >= 1 {
		return 0, false
	}
	return math.Max(math.Log2(v), minVolumeLog2), false
}

type clipState int

const (
	clipIdle clipState = iota
	clipLoading
	clipReady
	clipEnded
	clipClosed
)

// clip is a Handle backed by the speaker mixer.
type clip struct {
	mu sync.Mutex

	speaker  *Speaker
	url      string
	listener Listener
	ctx      context.Context
	cancel   context.CancelFunc

	buffer     *beep.Buffer
	ctrl       *beep.Ctrl
	vol        *effects.Volume
	state      clipState
	paused     bool
	volume     float64
	generation int // Identifies the queued stream so stale end callbacks are dropped
}

func (c *clip) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.paused = false

	switch c.state {
	case clipClosed:
		return ErrClosed
	case clipIdle:
		c.state = clipLoading
		go c.load()
	case clipLoading:
		// Starts unpaused once loaded
	case clipEnded:
		c.startLocked()
	case clipReady:
		speaker.Lock()
		c.ctrl.Paused = false
		speaker.Unlock()
	}
	return nil
}

func (c *clip) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case clipClosed:
		return ErrClosed
	case clipReady:
		speaker.Lock()
		c.ctrl.Paused = true
		speaker.Unlock()
	}
	c.paused = true
	return nil
}

func (c *clip) SetVolume(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.volume = v
	if c.vol != nil {
		speaker.Lock()
		c.vol.Volume, c.vol.Silent = volumeLevel(v)
		speaker.Unlock()
	}
}

func (c *clip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == clipClosed {
		return nil
	}
	c.state = clipClosed
	c.generation++
	c.cancel()

	if c.ctrl != nil {
		// A nil streamer drains the sequence and removes it from the mixer
		speaker.Lock()
		c.ctrl.Streamer = nil
		speaker.Unlock()
	}
	c.buffer = nil
	return nil
}

// load fetches the clip and starts it. Runs in its own goroutine.
func (c *clip) load() {
	buffer, err := c.speaker.fetch(c.ctx, c.url)

	c.mu.Lock()
	if c.state == clipClosed {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.state = clipIdle
		c.mu.Unlock()
		zlog.Warn().Msgf("audio: clip load failed: url=%s error=%v", c.url, err)
		c.listener(SignalFailed, err)
		return
	}
	c.buffer = buffer
	c.startLocked()
	c.mu.Unlock()
}

// startLocked queues the clip from the beginning.
// Must be called with lock held and a loaded buffer.
func (c *clip) startLocked() {
	c.generation++
	gen := c.generation

	c.ctrl = &beep.Ctrl{Streamer: c.buffer.Streamer(0, c.buffer.Len()), Paused: c.paused}
	c.vol = &effects.Volume{Streamer: c.ctrl, Base: 2}
	c.vol.Volume, c.vol.Silent = volumeLevel(c.volume)
	c.state = clipReady

	speaker.Play(beep.Seq(c.vol, beep.Callback(func() {
		// Runs on the mixer goroutine with the speaker lock held
		go c.finished(gen)
	})))
}

func (c *clip) finished(gen int) {
	c.mu.Lock()
	if gen != c.generation || c.state != clipReady {
		c.mu.Unlock()
		return
	}
	c.state = clipEnded
	c.mu.Unlock()

	c.listener(SignalEnded, nil)
}
