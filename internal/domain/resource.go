package domain

// Resource 被访问控制的资源统一能力：归属者 + 资源种类
// Kind 为单数（报错文案用），PermSuffix 为权限名里的复数后缀
type Resource interface {
	OwnerID() string
	ResourceKind() string
	PermSuffix() string
}

var (
	_ Resource = (*Post)(nil)
	_ Resource = (*Comment)(nil)
)

func (p *Post) OwnerID() string      { return p.UserID }
func (p *Post) ResourceKind() string { return "post" }
func (p *Post) PermSuffix() string   { return "posts" }

func (c *Comment) OwnerID() string      { return c.UserID }
func (c *Comment) ResourceKind() string { return "comment" }
func (c *Comment) PermSuffix() string   { return "comments" }
