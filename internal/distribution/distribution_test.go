package distribution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 5*time.Second, Clamp(time.Second, 5*time.Second, time.Minute))
	assert.Equal(t, 5*time.Second+time.Minute-1, Clamp(time.Hour, 5*time.Second, time.Minute))
	assert.Equal(t, 7*time.Second, Clamp(7*time.Second, 5*time.Second, time.Minute))
	assert.Equal(t, 5*time.Second, Clamp(7*time.Second, 5*time.Second, 0))
}

func TestStartAndMidpoint(t *testing.T) {
	assert.Equal(t, time.Hour, Start(time.Hour, 10*time.Hour))
	assert.Equal(t, 6*time.Hour, Midpoint(time.Hour, 10*time.Hour))
	assert.Equal(t, time.Hour, Midpoint(time.Hour, 0))
}

func TestRandomFuncsStayInWindow(t *testing.T) {
	rng := NewRand(42)
	start, window := 3*time.Hour, 24*time.Hour

	for name, fn := range map[string]Func{
		"uniform": Uniform(rng),
		"normal":  Normal(rng, 0.5),
	} {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 500; i++ {
				v := fn(start, window)
				assert.GreaterOrEqual(t, v, start)
				assert.Less(t, v, start+window)
			}
			assert.Equal(t, start, fn(start, 0))
		})
	}
}

func TestUniformDeterministicForSeed(t *testing.T) {
	a, b := Uniform(NewRand(9)), Uniform(NewRand(9))
	for i := 0; i < 20; i++ {
		assert.Equal(t, a(0, time.Hour), b(0, time.Hour))
	}
}

func TestCron(t *testing.T) {
	origin := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC) // a Monday
	fn, err := Cron("0 9 * * *", origin)
	require.NoError(t, err)

	assert.Equal(t, 9*time.Hour, fn(0, 24*time.Hour))
	assert.Equal(t, 33*time.Hour, fn(10*time.Hour, 48*time.Hour))
	// No tick inside a one hour window starting at 10:00.
	assert.Equal(t, 10*time.Hour, fn(10*time.Hour, time.Hour))
}

func TestCronInvalid(t *testing.T) {
	_, err := Cron("not a cron", time.Now())
	require.Error(t, err)
}

func TestParse(t *testing.T) {
	rng := NewRand(1)
	origin := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, expr := range []string{"start", "midpoint", "uniform", "normal", "normal:0.3", "cron:*/5 * * * *"} {
		fn, err := Parse(expr, rng, origin)
		require.NoError(t, err, expr)
		require.NotNil(t, fn, expr)
	}

	fn, err := Parse("", rng, origin)
	require.NoError(t, err)
	assert.Nil(t, fn)

	for _, bad := range []string{"poisson", "normal:-1", "cron:bogus"} {
		assert.Error(t, Validate(bad), bad)
	}
}
