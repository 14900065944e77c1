// rect.go - Rounded rectangle clips for rect frames.
package shape

import "math"

// RoundedRect returns the outline of a rectangle with circular corners.
// The radius is clamped to [0, min(w,h)/2]; a zero radius gives a plain box.
func RoundedRect(x, y, w, h, r float64) Path {
	r = ClampRadius(w, h, r)
	if r == 0 {
		return Path{
			move(x, y),
			line(x+w, y),
			line(x+w, y+h),
			line(x, y+h),
			closePath(),
		}
	}
	k := r * kappa
	return Path{
		move(x+r, y),
		line(x+w-r, y),
		cubic(x+w-r+k, y, x+w, y+r-k, x+w, y+r),
		line(x+w, y+h-r),
		cubic(x+w, y+h-r+k, x+w-r+k, y+h, x+w-r, y+h),
		line(x+r, y+h),
		cubic(x+r-k, y+h, x, y+h-r+k, x, y+h-r),
		line(x, y+r),
		cubic(x, y+r-k, x+r-k, y, x+r, y),
		closePath(),
	}
}

// ClampRadius limits a corner radius to what fits inside a w x h box.
func ClampRadius(w, h, r float64) float64 {
	if !(r > 0) || !(w > 0) || !(h > 0) {
		return 0
	}
	return math.Min(r, math.Min(w, h)/2)
}
