package ai

import (
	"bufio"
	"io"
	"strings"
)

// sse event payloads can carry whole JSON documents; allow generous lines.
const sseMaxLineSize = 1 << 20

// consumeSSE reads a text/event-stream body and invokes handle with every
// "data:" payload except the [DONE] terminator. The body is always closed.
func consumeSSE(body io.ReadCloser, handle func(data string)) error {
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), sseMaxLineSize)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}
		handle(data)
	}

	return scanner.Err()
}
