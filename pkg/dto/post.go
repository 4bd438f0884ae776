package dto

type PostRequest struct {
	Title         *string `json:"title"`
	Excerpt       *string `json:"excerpt"`
	Content       *string `json:"content"`
	CoverImageURL *string `json:"cover_image_url"`
	Published     *bool   `json:"published"`
}

type CountResponse struct {
	Count int `json:"count"`
}
