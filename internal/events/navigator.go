package events

import (
	"anycomp/internal/draft"
	"anycomp/internal/nav"
)

// Navigator sends navigation requests to every connected browser.
type Navigator struct {
	hub *Hub
}

func NewNavigator(h *Hub) *Navigator {
	return &Navigator{hub: h}
}

func (n *Navigator) ToLogin() {
	n.hub.Publish(Event{Type: TypeNavigate, Payload: map[string]string{"path": nav.LoginPath}})
}

// DraftTopic is the topic upload events of a specialist are published on.
func DraftTopic(specialistID string) string {
	return "draft:" + specialistID
}

// UploadObserver forwards draft state changes to the hub.
func (h *Hub) UploadObserver() draft.Observer {
	return func(e draft.Event) {
		h.Publish(Event{Type: TypeUpload, Topic: DraftTopic(e.SpecialistID), Payload: e})
	}
}
