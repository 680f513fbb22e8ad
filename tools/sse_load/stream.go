package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tidwall/gjson"
)

type loadStats struct {
	connected   atomic.Int64
	connectErrs atomic.Int64
	streamErrs  atomic.Int64
	events      atomic.Int64
	badPayloads atomic.Int64

	mu        sync.Mutex
	lastValue string
}

func (s *loadStats) String() string {
	s.mu.Lock()
	last := s.lastValue
	s.mu.Unlock()
	return fmt.Sprintf("connected=%d connect_errs=%d stream_errs=%d events=%d bad_payloads=%d last_value=%s",
		s.connected.Load(), s.connectErrs.Load(), s.streamErrs.Load(),
		s.events.Load(), s.badPayloads.Load(), last)
}

// readStream counts value events until r ends. Heartbeats and other events
// are ignored.
func readStream(r io.Reader, stats *loadStats) error {
	reader := bufio.NewReader(r)
	event := ""
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			event = ""
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: ") && event == "value":
			payload := strings.TrimPrefix(line, "data: ")
			value := gjson.Get(payload, "value")
			if !gjson.Valid(payload) || !value.Exists() {
				stats.badPayloads.Add(1)
				continue
			}
			stats.events.Add(1)
			stats.mu.Lock()
			stats.lastValue = value.String()
			stats.mu.Unlock()
		}
	}
}
