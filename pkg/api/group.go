package api

type GroupMember struct {
	UserId      string `json:"userId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Role        string `json:"role,omitempty"`
	JoinedAt    int64  `json:"joinedAt,omitempty"`
}

type Group struct {
	Id        string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	CreatedBy string         `json:"createdBy,omitempty"`
	Members   []*GroupMember `json:"members,omitempty"`
	CreatedAt int64          `json:"createdAt,omitempty"`
}

type CreateGroupRequest struct {
	Name string `json:"name,omitempty"`
	// MemberIds lists the other members. The caller is always added as admin.
	MemberIds []string `json:"memberIds,omitempty"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group,omitempty"`
}

type GetGroupRequest struct {
	GroupId string `json:"groupId,omitempty"`
}

type GetGroupResponse struct {
	Group *Group `json:"group,omitempty"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups,omitempty"`
}

// AddMemberRequest identifies the new member by UserId or, if empty, by Email.
type AddMemberRequest struct {
	GroupId string `json:"groupId,omitempty"`
	UserId  string `json:"userId,omitempty"`
	Email   string `json:"email,omitempty"`
	Role    string `json:"role,omitempty"`
}

type AddMemberResponse struct {
	Group *Group `json:"group,omitempty"`
}

type RemoveMemberRequest struct {
	GroupId string `json:"groupId,omitempty"`
	UserId  string `json:"userId,omitempty"`
}

type RemoveMemberResponse struct {
	Group *Group `json:"group,omitempty"`
}

type DeleteGroupRequest struct {
	GroupId string `json:"groupId,omitempty"`
}

type DeleteGroupResponse struct{}
