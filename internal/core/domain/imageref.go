package domain

import "strings"

const imageRefPrefix = "images/"

// NewImageRef builds the storage reference images/<user>/<id><ext>.
func NewImageRef(userID, id, ext string) string {
	return imageRefPrefix + userID + "/" + id + ext
}

// ImageRefOwnedBy reports whether ref points into userID's image namespace.
func ImageRefOwnedBy(ref, userID string) bool {
	if userID == "" || strings.Contains(userID, "/") {
		return false
	}
	rest, ok := strings.CutPrefix(ref, imageRefPrefix+userID+"/")
	return ok && rest != "" && !strings.Contains(rest, "/")
}
