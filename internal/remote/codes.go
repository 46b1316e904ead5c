package remote

// Transaction codes, in delegate method order.
const (
	CodeRemove uint32 = iota + 1
	CodeGetID
	CodeSetPosition
	CodeGetPosition
	CodeSetTitle
	CodeGetTitle
	CodeSetSnippet
	CodeGetSnippet
	CodeSetDraggable
	CodeIsDraggable
	CodeShowInfoWindow
	CodeHideInfoWindow
	CodeIsInfoWindowShown
	CodeSetVisible
	CodeIsVisible
	CodeEqualsRemote
	CodeHashCodeRemote
	CodeSetIcon
	CodeSetAnchor
	CodeSetFlat
	CodeIsFlat
	CodeSetRotation
	CodeGetRotation
	CodeSetInfoWindowAnchor
	CodeSetAlpha
	CodeGetAlpha
)

var codeNames = map[uint32]string{
	CodeRemove:              "remove",
	CodeGetID:               "getId",
	CodeSetPosition:         "setPosition",
	CodeGetPosition:         "getPosition",
	CodeSetTitle:            "setTitle",
	CodeGetTitle:            "getTitle",
	CodeSetSnippet:          "setSnippet",
	CodeGetSnippet:          "getSnippet",
	CodeSetDraggable:        "setDraggable",
	CodeIsDraggable:         "isDraggable",
	CodeShowInfoWindow:      "showInfoWindow",
	CodeHideInfoWindow:      "hideInfoWindow",
	CodeIsInfoWindowShown:   "isInfoWindowShown",
	CodeSetVisible:          "setVisible",
	CodeIsVisible:           "isVisible",
	CodeEqualsRemote:        "equalsRemote",
	CodeHashCodeRemote:      "hashCodeRemote",
	CodeSetIcon:             "setIcon",
	CodeSetAnchor:           "setAnchor",
	CodeSetFlat:             "setFlat",
	CodeIsFlat:              "isFlat",
	CodeSetRotation:         "setRotation",
	CodeGetRotation:         "getRotation",
	CodeSetInfoWindowAnchor: "setInfoWindowAnchor",
	CodeSetAlpha:            "setAlpha",
	CodeGetAlpha:            "getAlpha",
}

// CodeName returns the method name for a transaction code, or "" if unknown.
func CodeName(code uint32) string {
	return codeNames[code]
}
