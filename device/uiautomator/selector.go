package uiautomator

// selector holds UI element selection criteria, the JSON-RPC wire shape
// android-uiautomator-server's getUiObject expects.
type selector struct {
	Text        string `json:"text,omitempty"`
	ClassName   string `json:"className,omitempty"`
	Description string `json:"description,omitempty"`
	ResourceID  string `json:"resourceId,omitempty"`
	Instance    int    `json:"instance,omitempty"`
}

// selectorOption sets one selection criterion, composing the way
// android-uiautomator-server's Java selector builder does.
type selectorOption func(s *selector)

func newSelector(opts ...selectorOption) *selector {
	s := &selector{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func withText(v string) selectorOption {
	return func(s *selector) { s.Text = v }
}

func withClassName(v string) selectorOption {
	return func(s *selector) { s.ClassName = v }
}

func withDescription(v string) selectorOption {
	return func(s *selector) { s.Description = v }
}

func withResourceID(v string) selectorOption {
	return func(s *selector) { s.ResourceID = v }
}

func withInstance(v int) selectorOption {
	return func(s *selector) { s.Instance = v }
}

// selectorFromKwargs builds a selector from a Locator.ToKwargs() map plus
// its disambiguating index.
func selectorFromKwargs(kwargs map[string]string, index int) *selector {
	var opts []selectorOption
	if v, ok := kwargs["text"]; ok {
		opts = append(opts, withText(v))
	}
	if v, ok := kwargs["className"]; ok {
		opts = append(opts, withClassName(v))
	}
	if v, ok := kwargs["description"]; ok {
		opts = append(opts, withDescription(v))
	}
	if v, ok := kwargs["resourceId"]; ok {
		opts = append(opts, withResourceID(v))
	}
	if index != 0 {
		opts = append(opts, withInstance(index))
	}
	return newSelector(opts...)
}
