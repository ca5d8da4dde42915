package ai

type Option func(*Agent)

func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.systemPrompt = prompt
	}
}

// WithMaxSteps bounds the number of model calls per run.
func WithMaxSteps(steps int) Option {
	return func(a *Agent) {
		if steps > 0 {
			a.maxSteps = steps
		}
	}
}

func WithGuildLimiter(l *GuildLimiter) Option {
	return func(a *Agent) {
		a.limiter = l
	}
}
