package dto

type SetRoleRequest struct {
	Role string `json:"role"`
}

type SetFlagRequest struct {
	Value *bool `json:"value"`
}

type StatsResponse struct {
	Profiles     int `json:"profiles"`
	Contributors int `json:"contributors"`
	Readers      int `json:"readers"`
	Admins       int `json:"admins"`
	Verified     int `json:"verified"`
	Posts        int `json:"posts"`
}
