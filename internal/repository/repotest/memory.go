// Package repotest provides an in-memory repository.Repository for tests
// of the packages built on top of it.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/internal/repository"
)

// Store holds every table. Fields are exported so tests can seed and
// inspect rows directly; take Lock while doing so from multiple goroutines.
type Store struct {
	sync.Mutex
	txMu sync.Mutex

	Users           map[string]models.User
	Prefs           map[string]models.NotificationPreference
	Groups          map[string]models.Group
	Members         map[string]map[string]bool
	Vehicles        map[string]models.Vehicle
	Children        map[string]models.Child
	Requests        map[string]models.Request
	RequestChildren map[string][]string
	Carpools        map[string]models.Carpool
	Messages        []models.Message
	GroupMessages   []models.GroupMessage
	Schools         []models.School
	Centers         []models.CommunityCenter
	Friends         []models.Friend

	// FailCreateCarpool makes the next carpool insert fail.
	FailCreateCarpool error
}

func NewStore() *Store {
	return &Store{
		Users:           map[string]models.User{},
		Prefs:           map[string]models.NotificationPreference{},
		Groups:          map[string]models.Group{},
		Members:         map[string]map[string]bool{},
		Vehicles:        map[string]models.Vehicle{},
		Children:        map[string]models.Child{},
		Requests:        map[string]models.Request{},
		RequestChildren: map[string][]string{},
		Carpools:        map[string]models.Carpool{},
	}
}

// Repository returns a repository aggregate over the store.
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		User:    userRepo{s},
		Group:   groupRepo{s},
		Vehicle: vehicleRepo{s},
		Child:   childRepo{s},
		Request: requestRepo{s},
		Carpool: carpoolRepo{s},
		Message: messageRepo{s},
		Place:   placeRepo{s},
		Friend:  friendRepo{s},
		Tx:      s,
	}
}

// Transaction serializes transactions and restores the previous state when
// fn fails.
func (s *Store) Transaction(ctx context.Context, fn func(repo *repository.Repository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.Lock()
	snap := s.snapshot()
	s.Unlock()

	if err := fn(s.Repository()); err != nil {
		s.Lock()
		s.restore(snap)
		s.Unlock()
		return err
	}
	return nil
}

type snapshot struct {
	requests        map[string]models.Request
	requestChildren map[string][]string
	carpools        map[string]models.Carpool
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		requests:        make(map[string]models.Request, len(s.Requests)),
		requestChildren: make(map[string][]string, len(s.RequestChildren)),
		carpools:        make(map[string]models.Carpool, len(s.Carpools)),
	}
	for k, v := range s.Requests {
		snap.requests[k] = v
	}
	for k, v := range s.RequestChildren {
		snap.requestChildren[k] = append([]string(nil), v...)
	}
	for k, v := range s.Carpools {
		snap.carpools[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.Requests = snap.requests
	s.RequestChildren = snap.requestChildren
	s.Carpools = snap.carpools
}

// AddMember seeds a membership row.
func (s *Store) AddMember(groupID, userID string) {
	s.Lock()
	defer s.Unlock()
	if s.Members[groupID] == nil {
		s.Members[groupID] = map[string]bool{}
	}
	s.Members[groupID][userID] = true
}

// SetRequestChildren seeds the request_children rows of a request.
func (s *Store) SetRequestChildren(requestID string, childIDs ...string) {
	s.Lock()
	defer s.Unlock()
	s.RequestChildren[requestID] = childIDs
}

func (s *Store) user(id string) *models.User {
	u, ok := s.Users[id]
	if !ok {
		return nil
	}
	return &u
}

func (s *Store) loadRequest(r models.Request, withParent bool) models.Request {
	r.Children = nil
	for _, cid := range s.RequestChildren[r.ID] {
		if c, ok := s.Children[cid]; ok {
			r.Children = append(r.Children, c)
		}
	}
	if withParent {
		r.Parent = s.user(r.ParentID)
	}
	return r
}

type userRepo struct{ s *Store }

func (r userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.Lock()
	defer r.s.Unlock()
	if u := r.s.user(id); u != nil {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r userRepo) GetByIDs(_ context.Context, ids []string) ([]models.User, error) {
	r.s.Lock()
	defer r.s.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := r.s.Users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r userRepo) List(_ context.Context, limit int) ([]models.User, error) {
	r.s.Lock()
	defer r.s.Unlock()
	out := make([]models.User, 0, len(r.s.Users))
	for _, u := range r.s.Users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r userRepo) Upsert(_ context.Context, user *models.User) error {
	r.s.Lock()
	defer r.s.Unlock()
	if existing, ok := r.s.Users[user.ID]; ok {
		existing.Email = user.Email
		existing.UpdatedAt = time.Now()
		r.s.Users[user.ID] = existing
		*user = existing
		return nil
	}
	user.CreatedAt = time.Now()
	r.s.Users[user.ID] = *user
	return nil
}

func (r userRepo) Update(_ context.Context, id string, fields map[string]interface{}) (*models.User, error) {
	r.s.Lock()
	defer r.s.Unlock()
	u, ok := r.s.Users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		s, _ := v.(string)
		switch k {
		case "first_name":
			u.FirstName = s
		case "last_name":
			u.LastName = s
		case "email":
			u.Email = s
		case "phone_number":
			u.PhoneNumber = s
		case "city":
			u.City = s
		case "image_url":
			u.ImageURL = s
		case "license_image_url":
			u.LicenseImageURL = s
		case "insurance_image_url":
			u.InsuranceImageURL = s
		}
	}
	r.s.Users[id] = u
	return &u, nil
}

func (r userRepo) SetPushToken(_ context.Context, id string, token *string) (*models.User, error) {
	r.s.Lock()
	defer r.s.Unlock()
	u, ok := r.s.Users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	u.ExpoPushToken = token
	r.s.Users[id] = u
	return &u, nil
}

func (r userRepo) GetPreferences(_ context.Context, userID string) (*models.NotificationPreference, error) {
	r.s.Lock()
	defer r.s.Unlock()
	if p, ok := r.s.Prefs[userID]; ok {
		return &p, nil
	}
	return models.DefaultPreferences(userID), nil
}

func (r userRepo) SavePreferences(_ context.Context, pref *models.NotificationPreference) error {
	r.s.Lock()
	defer r.s.Unlock()
	r.s.Prefs[pref.UserID] = *pref
	return nil
}

type groupRepo struct{ s *Store }

func (r groupRepo) Create(_ context.Context, group *models.Group, creatorID string) error {
	_ = group.BeforeCreate(nil)
	group.CreatedAt = time.Now()
	r.s.Lock()
	r.s.Groups[group.ID] = *group
	r.s.Unlock()
	r.s.AddMember(group.ID, creatorID)
	return nil
}

func (r groupRepo) GetByID(_ context.Context, id string) (*models.Group, error) {
	r.s.Lock()
	defer r.s.Unlock()
	g, ok := r.s.Groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &g, nil
}

func (r groupRepo) GetWithMembers(_ context.Context, id string) (*models.Group, error) {
	r.s.Lock()
	defer r.s.Unlock()
	g, ok := r.s.Groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	g.Members = nil
	for _, uid := range sortedKeys(r.s.Members[id]) {
		g.Members = append(g.Members, models.GroupMember{GroupID: id, UserID: uid, User: r.s.user(uid)})
	}
	return &g, nil
}

func (r groupRepo) ListForUser(_ context.Context, userID string) ([]models.Group, error) {
	r.s.Lock()
	defer r.s.Unlock()
	var out []models.Group
	for gid, members := range r.s.Members {
		if members[userID] {
			if g, ok := r.s.Groups[gid]; ok {
				out = append(out, g)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r groupRepo) AddMember(_ context.Context, groupID, userID string) error {
	r.s.AddMember(groupID, userID)
	return nil
}

func (r groupRepo) RemoveMember(_ context.Context, groupID, userID string) (bool, error) {
	r.s.Lock()
	defer r.s.Unlock()
	if !r.s.Members[groupID][userID] {
		return false, nil
	}
	delete(r.s.Members[groupID], userID)
	return true, nil
}

func (r groupRepo) MemberIDs(_ context.Context, groupID string) ([]string, error) {
	r.s.Lock()
	defer r.s.Unlock()
	return sortedKeys(r.s.Members[groupID]), nil
}

func (r groupRepo) IsMember(_ context.Context, groupID, userID string) (bool, error) {
	r.s.Lock()
	defer r.s.Unlock()
	return r.s.Members[groupID][userID], nil
}

type vehicleRepo struct{ s *Store }

func (r vehicleRepo) Create(_ context.Context, v *models.Vehicle) error {
	_ = v.BeforeCreate(nil)
	v.CreatedAt = time.Now()
	r.s.Lock()
	defer r.s.Unlock()
	r.s.Vehicles[v.ID] = *v
	return nil
}

func (r vehicleRepo) GetByID(_ context.Context, id string) (*models.Vehicle, error) {
	r.s.Lock()
	defer r.s.Unlock()
	v, ok := r.s.Vehicles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &v, nil
}

func (r vehicleRepo) ListByOwner(_ context.Context, userID string) ([]models.Vehicle, error) {
	r.s.Lock()
	defer r.s.Unlock()
	var out []models.Vehicle
	for _, v := range r.s.Vehicles {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type childRepo struct{ s *Store }

func (r childRepo) Create(_ context.Context, c *models.Child) error {
	_ = c.BeforeCreate(nil)
	c.CreatedAt = time.Now()
	r.s.Lock()
	defer r.s.Unlock()
	r.s.Children[c.ID] = *c
	return nil
}

func (r childRepo) GetByIDs(_ context.Context, ids []string) ([]models.Child, error) {
	r.s.Lock()
	defer r.s.Unlock()
	var out []models.Child
	for _, id := range ids {
		if c, ok := r.s.Children[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r childRepo) ListByParent(_ context.Context, userID string) ([]models.Child, error) {
	r.s.Lock()
	defer r.s.Unlock()
	var out []models.Child
	for _, c := range r.s.Children {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstName < out[j].FirstName })
	return out, nil
}

type requestRepo struct{ s *Store }

func (r requestRepo) Create(_ context.Context, req *models.Request) error {
	_ = req.BeforeCreate(nil)
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	r.s.Lock()
	defer r.s.Unlock()
	row := *req
	row.Children, row.Parent, row.Carpool = nil, nil, nil
	r.s.Requests[req.ID] = row
	ids := make([]string, 0, len(req.Children))
	for _, c := range req.Children {
		ids = append(ids, c.ID)
	}
	r.s.RequestChildren[req.ID] = ids
	return nil
}

func (r requestRepo) GetByID(_ context.Context, id string) (*models.Request, error) {
	r.s.Lock()
	defer r.s.Unlock()
	req, ok := r.s.Requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := r.s.loadRequest(req, false)
	return &out, nil
}

func (r requestRepo) ClaimForCarpool(_ context.Context, requestID, carpoolID string) (bool, error) {
	r.s.Lock()
	defer r.s.Unlock()
	req, ok := r.s.Requests[requestID]
	if !ok || (req.CarpoolID != nil && *req.CarpoolID != carpoolID) {
		return false, nil
	}
	id := carpoolID
	req.CarpoolID = &id
	req.IsApproved = true
	r.s.Requests[requestID] = req
	return true, nil
}

func (r requestRepo) Approve(_ context.Context, id string) (*models.Request, error) {
	r.s.Lock()
	defer r.s.Unlock()
	req, ok := r.s.Requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	req.IsApproved = true
	r.s.Requests[id] = req
	out := r.s.loadRequest(req, false)
	return &out, nil
}

func (r requestRepo) ListPending(_ context.Context, f repository.PendingFilter) ([]models.Request, error) {
	r.s.Lock()
	defer r.s.Unlock()
	var out []models.Request
	for _, req := range r.s.Requests {
		if req.GroupID != f.GroupID || req.CarpoolID != nil || req.IsApproved {
			continue
		}
		if req.PickupTime.Before(f.From) || req.PickupTime.After(f.To) {
			continue
		}
		if f.EndingAddress != "" && !strings.EqualFold(strings.TrimSpace(f.EndingAddress), req.EndingAddress) {
			continue
		}
		loaded := r.s.loadRequest(req, true)
		for i := range loaded.Children {
			loaded.Children[i].Parent = r.s.user(loaded.Children[i].UserID)
		}
		out = append(out, loaded)
	}
	sortRequests(out)
	return out, nil
}

func (r requestRepo) ListByParent(_ context.Context, parentID string) ([]models.Request, error) {
	r.s.Lock()
	defer r.s.Unlock()
	var out []models.Request
	for _, req := range r.s.Requests {
		if req.ParentID != parentID {
			continue
		}
		loaded := r.s.loadRequest(req, true)
		if req.CarpoolID != nil {
			if c, ok := r.s.Carpools[*req.CarpoolID]; ok {
				c.Driver = r.s.user(c.DriverID)
				loaded.Carpool = &c
			}
		}
		out = append(out, loaded)
	}
	sortRequests(out)
	return out, nil
}

func (r requestRepo) ListByCarpool(_ context.Context, carpoolID string, approvedOnly bool) ([]models.Request, error) {
	r.s.Lock()
	defer r.s.Unlock()
	var out []models.Request
	for _, req := range r.s.Requests {
		if req.CarpoolID == nil || *req.CarpoolID != carpoolID || (approvedOnly && !req.IsApproved) {
			continue
		}
		out = append(out, r.s.loadRequest(req, true))
	}
	sortRequests(out)
	return out, nil
}

type carpoolRepo struct{ s *Store }

func (r carpoolRepo) Create(_ context.Context, c *models.Carpool) error {
	r.s.Lock()
	defer r.s.Unlock()
	if err := r.s.FailCreateCarpool; err != nil {
		r.s.FailCreateCarpool = nil
		return err
	}
	_ = c.BeforeCreate(nil)
	row := *c
	row.Driver, row.Vehicle, row.Group, row.Requests = nil, nil, nil, nil
	r.s.Carpools[c.ID] = row
	return nil
}

func (r carpoolRepo) GetByID(_ context.Context, id string) (*models.Carpool, error) {
	r.s.Lock()
	defer r.s.Unlock()
	c, ok := r.s.Carpools[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c.Driver = r.s.user(c.DriverID)
	if v, ok := r.s.Vehicles[c.VehicleID]; ok {
		c.Vehicle = &v
	}
	return &c, nil
}

// LockByID has nothing to lock: Store.Transaction already serializes.
func (r carpoolRepo) LockByID(ctx context.Context, id string) (*models.Carpool, error) {
	return r.GetByID(ctx, id)
}

func (r carpoolRepo) ListByDriver(_ context.Context, driverID string) ([]models.Carpool, error) {
	r.s.Lock()
	defer r.s.Unlock()
	var out []models.Carpool
	for _, c := range r.s.Carpools {
		if c.DriverID == driverID {
			c.Driver = r.s.user(c.DriverID)
			if v, ok := r.s.Vehicles[c.VehicleID]; ok {
				c.Vehicle = &v
			}
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r carpoolRepo) ListByGroup(_ context.Context, groupID string) ([]models.Carpool, error) {
	r.s.Lock()
	defer r.s.Unlock()
	var out []models.Carpool
	for _, c := range r.s.Carpools {
		if c.GroupID == groupID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type messageRepo struct{ s *Store }

func (r messageRepo) Create(_ context.Context, m *models.Message) error {
	_ = m.BeforeCreate(nil)
	m.CreatedAt = time.Now()
	r.s.Lock()
	defer r.s.Unlock()
	row := *m
	row.Sender, row.Recipient = nil, nil
	r.s.Messages = append(r.s.Messages, row)
	m.Sender = r.s.user(m.SenderID)
	m.Recipient = r.s.user(m.RecipientID)
	return nil
}

func (r messageRepo) Conversation(_ context.Context, userA, userB string, limit int) ([]models.Message, error) {
	r.s.Lock()
	defer r.s.Unlock()
	var out []models.Message
	for _, m := range r.s.Messages {
		if (m.SenderID == userA && m.RecipientID == userB) || (m.SenderID == userB && m.RecipientID == userA) {
			m.Sender = r.s.user(m.SenderID)
			m.Recipient = r.s.user(m.RecipientID)
			out = append(out, m)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r messageRepo) ListForUser(_ context.Context, userID string, limit int) ([]models.Message, error) {
	r.s.Lock()
	defer r.s.Unlock()
	var out []models.Message
	for i := len(r.s.Messages) - 1; i >= 0; i-- {
		m := r.s.Messages[i]
		if m.SenderID != userID && m.RecipientID != userID {
			continue
		}
		m.Sender = r.s.user(m.SenderID)
		m.Recipient = r.s.user(m.RecipientID)
		out = append(out, m)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r messageRepo) CreateGroupMessage(_ context.Context, m *models.GroupMessage) error {
	_ = m.BeforeCreate(nil)
	m.CreatedAt = time.Now()
	r.s.Lock()
	defer r.s.Unlock()
	row := *m
	row.Sender, row.Group = nil, nil
	r.s.GroupMessages = append(r.s.GroupMessages, row)
	m.Sender = r.s.user(m.SenderID)
	return nil
}

func (r messageRepo) ListGroupMessages(_ context.Context, groupID string, limit int) ([]models.GroupMessage, error) {
	r.s.Lock()
	defer r.s.Unlock()
	var out []models.GroupMessage
	for _, m := range r.s.GroupMessages {
		if m.GroupID == groupID {
			m.Sender = r.s.user(m.SenderID)
			out = append(out, m)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type placeRepo struct{ s *Store }

func (r placeRepo) ListCommunityCenters(context.Context) ([]models.CommunityCenter, error) {
	r.s.Lock()
	defer r.s.Unlock()
	return append([]models.CommunityCenter(nil), r.s.Centers...), nil
}

func (r placeRepo) SearchSchools(_ context.Context, prefix string, limit int) ([]models.School, error) {
	r.s.Lock()
	defer r.s.Unlock()
	var out []models.School
	for _, s := range r.s.Schools {
		if strings.HasPrefix(strings.ToLower(s.Name), strings.ToLower(prefix)) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type friendRepo struct{ s *Store }

func (r friendRepo) Add(_ context.Context, userID, friendID string) error {
	r.s.Lock()
	defer r.s.Unlock()
	for _, f := range r.s.Friends {
		if f.UserID == userID && f.FriendID == friendID {
			return nil
		}
	}
	f := models.Friend{UserID: userID, FriendID: friendID, CreatedAt: time.Now()}
	_ = f.BeforeCreate(nil)
	r.s.Friends = append(r.s.Friends, f)
	return nil
}

func (r friendRepo) Get(_ context.Context, userID, friendID string) (*models.Friend, error) {
	r.s.Lock()
	defer r.s.Unlock()
	for _, f := range r.s.Friends {
		if f.UserID == userID && f.FriendID == friendID {
			f.Friend = r.s.user(f.FriendID)
			return &f, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r friendRepo) ListForUser(_ context.Context, userID string) ([]models.Friend, error) {
	r.s.Lock()
	defer r.s.Unlock()
	var out []models.Friend
	for _, f := range r.s.Friends {
		if f.UserID == userID {
			f.Friend = r.s.user(f.FriendID)
			out = append(out, f)
		}
	}
	return out, nil
}

func (r friendRepo) Remove(_ context.Context, userID, friendID string) (bool, error) {
	r.s.Lock()
	defer r.s.Unlock()
	for i, f := range r.s.Friends {
		if f.UserID == userID && f.FriendID == friendID {
			r.s.Friends = append(r.s.Friends[:i], r.s.Friends[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortRequests(reqs []models.Request) {
	sort.Slice(reqs, func(i, j int) bool {
		if !reqs[i].PickupTime.Equal(reqs[j].PickupTime) {
			return reqs[i].PickupTime.Before(reqs[j].PickupTime)
		}
		return reqs[i].ID < reqs[j].ID
	})
}
