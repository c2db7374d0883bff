package domain

// Box — прямоугольник лица в пикселях исходного изображения.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FaceDescriptor — лицо, найденное на фото события.
type FaceDescriptor struct {
	Vector Embedding
	Box    Box
}

// DetectedFace — лицо в ответе сервиса детекции, до сохранения.
type DetectedFace struct {
	Box    Box
	Vector Embedding
}
