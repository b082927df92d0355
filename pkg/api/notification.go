package api

type Notification struct {
	Id        string `json:"id,omitempty"`
	Title     string `json:"title,omitempty"`
	Message   string `json:"message,omitempty"`
	Type      string `json:"type,omitempty"`
	RelatedId string `json:"relatedId,omitempty"`
	Read      bool   `json:"read,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

type ListNotificationsRequest struct {
	UnreadOnly bool  `json:"unreadOnly,omitempty"`
	Limit      int32 `json:"limit,omitempty"`
}

type ListNotificationsResponse struct {
	Notifications []*Notification `json:"notifications,omitempty"`
}

type MarkNotificationReadRequest struct {
	NotificationId string `json:"notificationId,omitempty"`
}

type MarkNotificationReadResponse struct{}

type Activity struct {
	Id          string            `json:"id,omitempty"`
	Action      string            `json:"action,omitempty"`
	Description string            `json:"description,omitempty"`
	UserId      string            `json:"userId,omitempty"`
	GroupId     string            `json:"groupId,omitempty"`
	EntityType  string            `json:"entityType,omitempty"`
	EntityId    string            `json:"entityId,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   int64             `json:"createdAt,omitempty"`
}

type ListActivityRequest struct {
	GroupId string `json:"groupId,omitempty"`
	Limit   int32  `json:"limit,omitempty"`
}

type ListActivityResponse struct {
	Activities []*Activity `json:"activities,omitempty"`
}
