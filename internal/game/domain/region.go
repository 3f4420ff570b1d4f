package domain

// Region 地图上的一块领地。Name/Capital/Population 静态，OwnerID 为空表示无主。
type Region struct {
	Name       string   `json:"name" bson:"_id" yaml:"name"`
	Capital    string   `json:"capital" bson:"capital" yaml:"capital"`
	Population int64    `json:"population" bson:"population" yaml:"population"`
	OwnerID    PlayerID `json:"owner_id,omitempty" bson:"owner_id" yaml:"-"`
}

func (r Region) Owned() bool {
	return r.OwnerID != ""
}
