package ui

import "strconv"

// Like icon classes.
const (
	ClassLikedIcon   = "fas"
	ClassUnlikedIcon = "far"
	ClassLikedColor  = "text-danger"
)

// Follow button classes and labels.
const (
	ClassFollowing   = "btn-outline-secondary"
	ClassNotFollowed = "btn-primary"
	LabelFollowing   = "Following"
	LabelFollow      = "Follow"
)

// ApplyLikeState puts a like icon into one of its two fixed states.
func ApplyLikeState(el Element, liked bool) {
	if liked {
		el.RemoveClass(ClassUnlikedIcon)
		el.AddClass(ClassLikedIcon)
		el.AddClass(ClassLikedColor)
		return
	}
	el.RemoveClass(ClassLikedIcon)
	el.RemoveClass(ClassLikedColor)
	el.AddClass(ClassUnlikedIcon)
}

// ApplyFollowState puts a follow button into one of its two fixed states.
func ApplyFollowState(el Element, following bool) {
	if following {
		el.SetText(LabelFollowing)
		el.RemoveClass(ClassNotFollowed)
		el.AddClass(ClassFollowing)
		return
	}
	el.SetText(LabelFollow)
	el.RemoveClass(ClassFollowing)
	el.AddClass(ClassNotFollowed)
}

// SetCount writes n as the element's text.
func SetCount(el Element, n int) {
	el.SetText(strconv.Itoa(n))
}

// IncrementCount adds delta to a numeric text. Non-numeric text is treated as zero.
func IncrementCount(el Element, delta int) {
	n, err := strconv.Atoi(el.Text())
	if err != nil {
		n = 0
	}
	SetCount(el, n+delta)
}
