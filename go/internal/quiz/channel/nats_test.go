package channel

import (
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectFor(t *testing.T) {
	assert.Equal(t, "tunequiz.session.abc-123", subjectFor("tunequiz.session", "abc-123"))
	assert.Equal(t, "tunequiz.session", DefaultNATSConfig().SubjectPrefix)
}

func TestDeliver(t *testing.T) {
	event := newTestEvent(t, "s1", "alice")
	data, err := event.Encode()
	require.NoError(t, err)

	tests := []struct {
		name      string
		data      []byte
		delivered bool
	}{
		{name: "valid event", data: data, delivered: true},
		{name: "not json", data: []byte("garbage"), delivered: false},
		{name: "missing type", data: []byte(`{"session_id":"s1","data":{}}`), delivered: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, received := collector()
			deliver(handler)(&nats.Msg{Subject: "tunequiz.session.s1", Data: tt.data})

			if !tt.delivered {
				assert.Len(t, received, 0)
				return
			}
			require.Len(t, received, 1)
			got := <-received
			assert.Equal(t, event.ID, got.ID)
			assert.Equal(t, event.Type, got.Type)
			assert.JSONEq(t, string(event.Data), string(got.Data))
		})
	}
}
