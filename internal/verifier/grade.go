package verifier

// Grade is the security level a message reaches under both attacker models.
// Authentication runs 0..2, confidentiality 0..5.
type Grade struct {
	Auth int `json:"auth"`
	Conf int `json:"conf"`
}

const (
	MaxAuth = 2
	MaxConf = 5
)

// GradeMessage derives the grade of message i. Authentication comes from the
// active run only; confidentiality combines both.
func GradeMessage(active, passive *Results, i int) Grade {
	var g Grade
	switch {
	case active.Holds(i, Authentication, 2):
		g.Auth = 2
	case active.Holds(i, Authentication, 1):
		g.Auth = 1
	}
	switch {
	case active.Holds(i, Confidentiality, 2):
		g.Conf = 5
	case active.Holds(i, Confidentiality, 3):
		g.Conf = 4
	case passive.Holds(i, Confidentiality, 2):
		g.Conf = 3
	case active.Holds(i, Confidentiality, 1):
		g.Conf = 2
	case passive.Holds(i, Confidentiality, 1):
		g.Conf = 1
	}
	return g
}

// Status aggregates the outcomes of every non-sanity query on message i
// across both runs: Violated if any failed, Unknown if any could not be
// decided, Secure otherwise.
func Status(active, passive *Results, i int) Outcome {
	st := Secure
	seen := false
	for _, rs := range []*Results{active, passive} {
		for _, r := range rs.ForMessage(i) {
			if r.Sanity() {
				continue
			}
			seen = true
			switch r.Outcome {
			case Violated:
				return Violated
			case Unknown:
				st = Unknown
			}
		}
	}
	if !seen {
		return Unknown
	}
	return st
}

// Describe returns the prose meaning of a grade, used by the renderer.
func (g Grade) Describe() (auth, conf string) {
	return authText[g.Auth], confText[g.Conf]
}

var authText = [...]string{
	0: "No authentication: the payload may have been sent by any party, including an active attacker.",
	1: "Sender authentication, vulnerable to key compromise impersonation: the payload is authenticated unless the recipient's long-term key has been compromised.",
	2: "Sender authentication resistant to key compromise impersonation: the payload can only have come from the sender unless the sender's long-term key has been compromised.",
}

var confText = [...]string{
	0: "No confidentiality: the payload is sent in the clear.",
	1: "Encryption to an ephemeral recipient: secure against passive attackers only, with no forward secrecy.",
	2: "Encryption to a known recipient, without forward secrecy: secret unless the recipient's long-term key is ever compromised.",
	3: "Encryption to a known recipient with weak forward secrecy: secure against passive attackers even if long-term keys are compromised later.",
	4: "Encryption to a known recipient with weak forward secrecy against active attackers, provided the sender's key was not compromised before the session.",
	5: "Encryption to a known recipient with strong forward secrecy: secret unless the recipient's long-term key was compromised before the session.",
}
