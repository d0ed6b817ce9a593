package models

import "slices"

// PollOption is one choice of a poll together with the ids of users who picked it
type PollOption struct {
	Name   string `json:"name"`
	Voters []uint `json:"voters"`
}

// Poll is the typed payload of a POLL chat message.
// A user id appears in at most one option's voter list.
type Poll struct {
	Question string       `json:"question,omitempty"`
	Options  []PollOption `json:"options"`
}

// Vote moves userID onto the option at index, removing any earlier vote.
// It returns false, leaving the poll untouched, when index is out of range.
func (p *Poll) Vote(userID uint, index int) bool {
	if index < 0 || index >= len(p.Options) {
		return false
	}
	for i := range p.Options {
		p.Options[i].Voters = slices.DeleteFunc(p.Options[i].Voters, func(v uint) bool {
			return v == userID
		})
	}
	p.Options[index].Voters = append(p.Options[index].Voters, userID)
	return true
}

// Blank returns a copy with the question and option names only, so a poll
// always starts without votes
func (p *Poll) Blank() *Poll {
	blank := &Poll{Question: p.Question, Options: make([]PollOption, len(p.Options))}
	for i, opt := range p.Options {
		blank.Options[i] = PollOption{Name: opt.Name, Voters: []uint{}}
	}
	return blank
}
