package database

// Table 由各 model 实现，声明自己的集合/表名。
type Table interface {
	GetTableName() string
}
