package study

// KeywordInstance is one occurrence of a keyword in the study text. Repeated
// words get separate instances so each blank is answered and graded alone.
type KeywordInstance struct {
	InstanceID int    `json:"instance_id"`
	Word       string `json:"word"`
	BaseWord   string `json:"base_word"`
}

// AssignInstances numbers keyword tokens 1, 2, 3, ... in document order. It
// returns a numbered copy of tokens and the projected instance list; the
// input slice is left untouched.
func AssignInstances(tokens []Token) ([]Token, []KeywordInstance) {
	out := make([]Token, len(tokens))
	copy(out, tokens)

	var instances []KeywordInstance
	seq := 0
	for i := range out {
		if !out[i].IsKeyword() {
			continue
		}
		seq++
		out[i].InstanceID = seq
		instances = append(instances, KeywordInstance{
			InstanceID: seq,
			Word:       out[i].Value,
			BaseWord:   out[i].BaseWord,
		})
	}
	return out, instances
}
