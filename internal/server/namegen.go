package server

import (
	"fmt"
	"math/rand/v2"
)

var nameAdjectives = []string{
	"phantom", "hollow", "silver", "shadow", "spectral",
	"ghostly", "ethereal", "haunted", "mystic", "twilight",
	"silent", "fading", "ancient", "cursed", "forgotten",
	"pale", "dark", "eerie", "somber", "shrouded",
	"veiled", "grim", "dusk", "frost", "ashen",
	"waning", "void", "deep", "lost", "still",
}

var nameNouns = []string{
	"drift", "echo", "mist", "shade", "whisper",
	"wraith", "specter", "haunt", "gloom", "crypt",
	"tomb", "veil", "fog", "dusk", "ember",
	"ash", "bone", "rune", "ward", "gate",
	"marsh", "moor", "vale", "rift", "cairn",
	"peak", "keep", "den", "maze", "well",
}

func generateSessionName() string {
	adj := nameAdjectives[rand.IntN(len(nameAdjectives))]
	noun := nameNouns[rand.IntN(len(nameNouns))]
	return adj + "-" + noun
}

// uniqueSessionName picks an unused adjective-noun name, falling back to
// a numeric suffix if the namespace is saturated.
func (s *Server) uniqueSessionName() string {
	for range 100 {
		name := generateSessionName()
		if _, exists := s.sessionByName[name]; !exists {
			return name
		}
	}
	for {
		name := fmt.Sprintf("%s-%d", generateSessionName(), rand.IntN(1000))
		if _, exists := s.sessionByName[name]; !exists {
			return name
		}
	}
}
