package apijson

// Unwrap returns the data payload of a {success, data} envelope. Any success
// entry that is not exactly true invalidates the envelope, wherever it sits
// relative to data.
func Unwrap(doc Document) (Node, bool) {
	root := doc.Root()
	if !root.IsObject() {
		return Node{}, false
	}
	var (
		data       Node
		hasData    bool
		hasSuccess bool
		failed     bool
	)
	root.Entries(func(key string, value Node) bool {
		switch key {
		case "success":
			if !value.IsTrue() {
				failed = true
				return false
			}
			hasSuccess = true
		case "data":
			if !hasData {
				data, hasData = value, true
			}
		}
		return true
	})
	if failed || !hasSuccess || !hasData {
		return Node{}, false
	}
	return data, true
}
