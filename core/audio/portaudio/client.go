// Package portaudio is an alternative audio backend built on PortAudio's
// blocking streams.
package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-companion/core/audio"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/koscakluka/ema-companion/core/audio/portaudio"

var logger = otelslog.NewLogger(scopeName)

const DefaultBufferSize = 1024

type Client struct {
	bufferSize int
	sampleRate int

	input  *portaudio.Stream
	output *portaudio.Stream
	in     []int16
	out    []int16

	captureMu     sync.Mutex
	captureCancel context.CancelFunc
	captureDone   chan struct{}

	queue     chan playbackItem
	clearMu   sync.Mutex
	clearGen  int
	closeOnce sync.Once
	closed    chan struct{}
}

type playbackItem struct {
	generation int
	audio      []byte
	mark       *playbackMark
}

type playbackMark struct {
	name     string
	callback func(string)
}

func NewClient(bufferSize int) (*Client, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	c := &Client{
		bufferSize: bufferSize,
		sampleRate: audio.DefaultSampleRate,
		in:         make([]int16, bufferSize),
		out:        make([]int16, bufferSize),
		queue:      make(chan playbackItem, 256),
		closed:     make(chan struct{}),
	}

	var err error
	if c.input, err = portaudio.OpenDefaultStream(1, 0, float64(c.sampleRate), bufferSize, c.in); err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	if c.output, err = portaudio.OpenDefaultStream(0, 1, float64(c.sampleRate), bufferSize, c.out); err != nil {
		c.input.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}
	if err := c.output.Start(); err != nil {
		c.input.Close()
		c.output.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start output stream: %w", err)
	}

	go c.play()

	return c, nil
}

func (c *Client) StartCapture(ctx context.Context, onAudio func(audio []byte)) error {
	c.captureMu.Lock()
	defer c.captureMu.Unlock()
	if c.captureCancel != nil {
		return nil
	}

	if err := c.input.Start(); err != nil {
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.captureCancel = cancel
	c.captureDone = done

	go func() {
		defer close(done)
		for ctx.Err() == nil {
			if err := c.input.Read(); err != nil {
				logger.Warn("failed to read from input stream", "error", err)
				continue
			}

			buffer := bytes.Buffer{}
			_ = binary.Write(&buffer, binary.LittleEndian, c.in)
			onAudio(buffer.Bytes())
		}
	}()

	return nil
}

func (c *Client) StopCapture() error {
	c.captureMu.Lock()
	defer c.captureMu.Unlock()
	if c.captureCancel == nil {
		return nil
	}

	c.captureCancel()
	<-c.captureDone
	c.captureCancel = nil
	c.captureDone = nil

	if err := c.input.Stop(); err != nil {
		return fmt.Errorf("failed to stop input stream: %w", err)
	}
	return nil
}

func (c *Client) SendAudio(audio []byte) error {
	return c.enqueue(playbackItem{audio: append([]byte(nil), audio...)})
}

func (c *Client) Mark(name string, callback func(string)) error {
	return c.enqueue(playbackItem{mark: &playbackMark{name: name, callback: callback}})
}

func (c *Client) ClearBuffer() {
	c.clearMu.Lock()
	c.clearGen++
	c.clearMu.Unlock()

	for {
		select {
		case <-c.queue:
		default:
			return
		}
	}
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: c.sampleRate,
		Format:     audio.EncodingLinear16,
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		_ = c.StopCapture()
		close(c.closed)
		c.input.Close()
		c.output.Close()
		portaudio.Terminate()
	})
}

func (c *Client) enqueue(item playbackItem) error {
	c.clearMu.Lock()
	item.generation = c.clearGen
	c.clearMu.Unlock()

	select {
	case <-c.closed:
		return fmt.Errorf("audio client closed")
	case c.queue <- item:
		return nil
	}
}

func (c *Client) isCleared(item playbackItem) bool {
	c.clearMu.Lock()
	defer c.clearMu.Unlock()
	return item.generation != c.clearGen
}

// play writes queued audio in buffer sized frames. Leftover bytes that do not
// fill a frame are padded with silence once a mark or the queue end is hit.
func (c *Client) play() {
	frameBytes := c.bufferSize * 2
	var leftover []byte

	writeFrame := func(frame []byte) {
		padded := make([]byte, frameBytes)
		copy(padded, frame)
		_ = binary.Read(bytes.NewReader(padded), binary.LittleEndian, c.out)
		if err := c.output.Write(); err != nil {
			logger.Warn("failed to write to output stream", "error", err)
		}
	}

	for {
		select {
		case <-c.closed:
			return
		case item := <-c.queue:
			if c.isCleared(item) {
				leftover = nil
				continue
			}

			if item.mark != nil {
				if len(leftover) > 0 {
					writeFrame(leftover)
					leftover = nil
				}
				item.mark.callback(item.mark.name)
				continue
			}

			leftover = append(leftover, item.audio...)
			for len(leftover) >= frameBytes && !c.isCleared(item) {
				writeFrame(leftover[:frameBytes])
				leftover = leftover[frameBytes:]
			}
		}
	}
}
