package personality

import (
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fixed always returns the same index.
type fixed int

func (f fixed) IntN(n int) int { return int(f) % n }

func TestDefaultUser(t *testing.T) {
	p := New("  ", fixed(0))
	assert.Equal(t, "Sir", p.User())
	assert.Equal(t, "Good morning, Sir. All systems operational.", p.Greet())
}

func TestDeterministicSource(t *testing.T) {
	p := New("Tony", fixed(2))
	assert.Equal(t, "At your service, Tony.", p.Greet())
	assert.Equal(t, "On it, Tony.", p.Acknowledge())
	assert.Equal(t, "Complete. Shall I proceed with the next step?", p.Complete())
	assert.Equal(t, "My apologies, Tony. Something's gone wrong.", p.Error())
	assert.Equal(t, "Perhaps you could rephrase that, Tony?", p.Clarify())
	assert.Equal(t, "Analyzing now, Tony.", p.Working())
	assert.Equal(t, "Bringing Vilya online now, Tony.", p.AgentForging("Vilya"))
}

func TestEveryPhraseRendersWithoutSlots(t *testing.T) {
	for _, c := range []Category{Greeting, Acknowledgment, Completion, Error, Clarification, Working, AgentForging} {
		for i := range Phrases(c) {
			q := New("Pepper", fixed(i))
			out := q.Say(c)
			if c == AgentForging {
				out = q.AgentForging("Narya")
			}
			assert.NotContains(t, out, "{user}")
			assert.NotContains(t, out, "{agent}")
		}
	}
}

func TestRandomSourceIsSafeConcurrently(t *testing.T) {
	p := New("Sir", rand.New(rand.NewPCG(1, 2)))
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Contains(t, Phrases(Greeting), strings.ReplaceAll(p.Greet(), "Sir", "{user}"))
		}()
	}
	wg.Wait()
}

func TestFormat(t *testing.T) {
	p := New("Boss", nil)
	assert.Equal(t, "Ready, Boss. Ready, Boss.", p.Format("Ready, {user}. Ready, {user}."))
}
