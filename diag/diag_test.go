package diag

import (
	"bytes"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLogConcurrent(t *testing.T) {
	l := NewLog()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				Warnf(l, CodeUnresolvedReference, "obj", "miss %d/%d", i, j)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 800, l.Len())
	assert.Equal(t, 800, l.Count(CodeUnresolvedReference))
	assert.Equal(t, 0, l.Count(CodeAmbiguousReference))
}

func TestFlushKeepsOrder(t *testing.T) {
	local := NewLog()
	Infof(local, "a", "first")
	Warnf(local, CodeMixedTopologyConflict, "a", "second")

	global := NewLog()
	local.FlushTo(global)

	assert.Equal(t, 0, local.Len())
	records := global.Records()
	if assert.Len(t, records, 2) {
		assert.Equal(t, "first", records[0].Message)
		assert.Equal(t, CodeMixedTopologyConflict, records[1].Code)
	}
}

func TestLogrusSink(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})

	l := NewLog()
	s := Tee(NewLogrusSink(logger), l, nil)
	Warnf(s, CodeUnsupportedTopology, "Cube", "polygons are not supported")

	out := buf.String()
	assert.Contains(t, out, "level=warning")
	assert.Contains(t, out, "code=UnsupportedTopology")
	assert.Contains(t, out, "object=Cube")
	assert.Equal(t, 1, l.Len())
}

func TestRecordString(t *testing.T) {
	r := Record{Level: LevelWarning, Code: CodeAmbiguousReference, Object: "Body", Message: "2 candidates"}
	assert.Equal(t, "warning [AmbiguousReference] Body: 2 candidates", r.String())
}
