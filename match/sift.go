package match

import (
	"gocv.io/x/gocv"

	"github.com/pkg/errors"
)

// Point is a 2D image coordinate, the Go analogue of a cv2.KeyPoint's .pt.
type Point struct {
	X, Y float64
}

// PointMatch is one accepted SIFT correspondence between the old and new
// screenshots.
type PointMatch struct {
	Old, New Point
}

// loweRatio is the maximum best/second-best descriptor distance ratio for a
// kNN match to be accepted, per Lowe's ratio test.
const loweRatio = 0.8

// siftKeypointMatches detects SIFT keypoints in both screenshots and
// returns the correspondences passing Lowe's ratio test under brute-force
// kNN (k=2) matching.
func siftKeypointMatches(pngOld, pngNew []byte) ([]PointMatch, error) {
	imgOld, err := gocv.IMDecode(pngOld, gocv.IMReadGrayScale)
	if err != nil {
		return nil, errors.Wrap(err, "decode old screenshot")
	}
	defer imgOld.Close()
	imgNew, err := gocv.IMDecode(pngNew, gocv.IMReadGrayScale)
	if err != nil {
		return nil, errors.Wrap(err, "decode new screenshot")
	}
	defer imgNew.Close()
	if imgOld.Empty() || imgNew.Empty() {
		return nil, errors.New("empty screenshot")
	}

	sift := gocv.NewSIFT()
	defer sift.Close()

	maskOld := gocv.NewMatWithSize(imgOld.Rows(), imgOld.Cols(), gocv.MatTypeCV8U)
	defer maskOld.Close()
	maskOld.SetTo(gocv.NewScalar(255, 0, 0, 0))
	maskNew := gocv.NewMatWithSize(imgNew.Rows(), imgNew.Cols(), gocv.MatTypeCV8U)
	defer maskNew.Close()
	maskNew.SetTo(gocv.NewScalar(255, 0, 0, 0))

	kpOld, descOld := sift.DetectAndCompute(imgOld, maskOld)
	defer descOld.Close()
	kpNew, descNew := sift.DetectAndCompute(imgNew, maskNew)
	defer descNew.Close()

	if descOld.Empty() || descNew.Empty() {
		return nil, nil
	}

	matcher := gocv.NewBFMatcher()
	defer matcher.Close()
	knnMatches := matcher.KnnMatch(descOld, descNew, 2)

	var result []PointMatch
	for _, pair := range knnMatches {
		if len(pair) < 2 {
			continue
		}
		m, n := pair[0], pair[1]
		if m.Distance < n.Distance*loweRatio {
			result = append(result, PointMatch{
				Old: Point{X: float64(kpOld[m.QueryIdx].X), Y: float64(kpOld[m.QueryIdx].Y)},
				New: Point{X: float64(kpNew[m.TrainIdx].X), Y: float64(kpNew[m.TrainIdx].Y)},
			})
		}
	}
	return result, nil
}
