package batch

// Camera is the decorative camera preview. Once a start attempt fails the
// affordance is hidden for the rest of the screen's life and further
// attempts do nothing; logging stays manual.
type Camera struct {
	Active      bool `json:"active"`
	Unavailable bool `json:"unavailable"`
}

// Start shows the preview if the device granted access.
func (c *Camera) Start(available bool) {
	if c.Unavailable {
		return
	}
	if !available {
		c.Unavailable = true
		c.Active = false
		return
	}
	c.Active = true
}

func (c *Camera) Stop() { c.Active = false }

// Toggle stops an active preview or tries to start one.
func (c *Camera) Toggle(available bool) {
	if c.Active {
		c.Stop()
		return
	}
	c.Start(available)
}

// Visible reports whether the camera button should be shown.
func (c *Camera) Visible() bool { return !c.Unavailable }
