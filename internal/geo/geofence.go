// Package geo は地理座標の検証と大円距離の計算を提供する。
// 勤怠のサインイン/サインアウトを勤務地周辺に制限するジオフェンス判定に使用する。
package geo

import "math"

// earthRadiusMeters は平均地球半径（メートル）。
const earthRadiusMeters = 6371008.8

// Point は地理座標（度単位の緯度・経度）を表す。
type Point struct {
	Lat float64
	Lon float64
}

// Valid は座標が有効かを返す。
// NaN・無限大・範囲外（|lat|>90, |lon|>180）の座標は無効とする。
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return false
	}
	if math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Distance は2点間の大円距離（メートル）をhaversine公式で計算する。
// いずれかの座標が無効な場合はNaNを返す。
func Distance(a, b Point) float64 {
	if !a.Valid() || !b.Valid() {
		return math.NaN()
	}

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Validator は中心点と半径で定義される円形ジオフェンスの判定器。
// 副作用を持たない純粋な判定のみを行う。
type Validator struct {
	Reference    Point
	RadiusMeters float64
}

// NewValidator はValidatorを生成する。
func NewValidator(reference Point, radiusMeters float64) *Validator {
	return &Validator{Reference: reference, RadiusMeters: radiusMeters}
}

// Contains は指定座標がジオフェンス内にあるかを返す。
// 距離が半径とちょうど等しい場合は圏内とみなす。
// 無効な座標は常に圏外として扱う（クラッシュさせない）。
func (v *Validator) Contains(p Point) bool {
	d := Distance(v.Reference, p)
	if math.IsNaN(d) {
		return false
	}
	return d <= v.RadiusMeters
}

// DistanceFrom は中心点から指定座標までの距離（メートル）を返す。
// 無効な座標の場合はNaNを返す。
func (v *Validator) DistanceFrom(p Point) float64 {
	return Distance(v.Reference, p)
}
