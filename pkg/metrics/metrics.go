package metrics

// RequestSecondsBuckets fits calls that take anywhere from a few hundred
// milliseconds to a couple of minutes (tts requests, ffmpeg stages).
var RequestSecondsBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30, 60, 120, 300}
