package services

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"wardsync/apperrors"
	"wardsync/models"
)

func (s *ServicesSuite) TestRegister() {
	s.Run("citizen by default with normalized email", func() {
		u, err := s.svc.Auth.Register(s.ctx, RegisterInput{Name: "Asha", Email: " Asha@Example.com ", Password: "secret1"})
		s.Require().NoError(err)
		s.Equal(models.RoleCitizen, u.Role)
		s.Equal("asha@example.com", u.Email)
		s.NotEqual("secret1", u.Password)
		s.Nil(u.WardID)
	})

	s.Run("duplicate email", func() {
		_, err := s.svc.Auth.Register(s.ctx, RegisterInput{Name: "Asha", Email: "ASHA@example.com", Password: "secret1"})
		s.ErrorIs(err, apperrors.ErrConflict)
	})

	s.Run("authority joins ward admins", func() {
		u, err := s.svc.Auth.Register(s.ctx, RegisterInput{
			Name: "Officer", Email: "officer@example.com", Password: "secret1",
			Role: "authority", WardID: s.civilLines.ID.Hex(),
		})
		s.Require().NoError(err)
		s.Require().NotNil(u.WardID)
		s.Equal(s.civilLines.ID, *u.WardID)

		ward, err := s.store.FindWardByID(s.ctx, s.civilLines.ID)
		s.Require().NoError(err)
		s.Contains(ward.AdminUserIDs, u.ID)
	})

	s.Run("authority needs a real ward", func() {
		_, err := s.svc.Auth.Register(s.ctx, RegisterInput{Name: "X", Email: "x@example.com", Password: "secret1", Role: "authority"})
		s.ErrorIs(err, apperrors.ErrValidation)

		_, err = s.svc.Auth.Register(s.ctx, RegisterInput{
			Name: "X", Email: "x@example.com", Password: "secret1",
			Role: "authority", WardID: primitive.NewObjectID().Hex(),
		})
		s.ErrorIs(err, apperrors.ErrNotFound)
	})

	s.Run("unknown role", func() {
		_, err := s.svc.Auth.Register(s.ctx, RegisterInput{Name: "X", Email: "y@example.com", Password: "secret1", Role: "mayor"})
		s.ErrorIs(err, apperrors.ErrValidation)
	})
}

func (s *ServicesSuite) TestSessionLifecycle() {
	// Token expiry is checked against the wall clock.
	s.now = time.Now()

	_, err := s.svc.Auth.Register(s.ctx, RegisterInput{
		Name: "Officer", Email: "officer@example.com", Password: "secret1",
		Role: "authority", WardID: s.civilLines.ID.Hex(),
	})
	s.Require().NoError(err)

	_, err = s.svc.Auth.Login(s.ctx, "officer@example.com", "wrong")
	s.ErrorIs(err, apperrors.ErrUnauthorized)
	_, err = s.svc.Auth.Login(s.ctx, "nobody@example.com", "secret1")
	s.ErrorIs(err, apperrors.ErrUnauthorized)

	login, err := s.svc.Auth.Login(s.ctx, "OFFICER@example.com", "secret1")
	s.Require().NoError(err)
	s.NotEmpty(login.Token)
	s.WithinDuration(s.now.Add(time.Hour), login.ExpiresAt, time.Second)

	sess, err := s.svc.Auth.Authenticate(s.ctx, login.Token)
	s.Require().NoError(err)
	s.Equal(login.User.ID, sess.UserID)
	s.Equal(models.RoleAuthority, sess.Role)
	s.True(sess.IsWardAuthority())
	s.Equal(s.civilLines.ID, *sess.WardID)

	me, err := s.svc.Auth.Me(s.ctx, *sess)
	s.Require().NoError(err)
	s.Equal("officer@example.com", me.Email)

	s.Require().NoError(s.svc.Auth.Logout(s.ctx, *sess))
	_, err = s.svc.Auth.Authenticate(s.ctx, login.Token)
	s.ErrorIs(err, apperrors.ErrUnauthorized)

	_, err = s.svc.Auth.Authenticate(s.ctx, "not-a-token")
	s.ErrorIs(err, apperrors.ErrUnauthorized)
}

func (s *ServicesSuite) TestRefreshRotatesToken() {
	s.now = time.Now()

	_, err := s.svc.Auth.Register(s.ctx, RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "secret1"})
	s.Require().NoError(err)
	login, err := s.svc.Auth.Login(s.ctx, "asha@example.com", "secret1")
	s.Require().NoError(err)
	sess, err := s.svc.Auth.Authenticate(s.ctx, login.Token)
	s.Require().NoError(err)

	s.now = s.now.Add(time.Minute)
	refreshed, err := s.svc.Auth.Refresh(s.ctx, *sess)
	s.Require().NoError(err)
	s.NotEqual(login.Token, refreshed.Token)
	s.True(refreshed.ExpiresAt.After(login.ExpiresAt))
	s.Equal(login.User.ID, refreshed.User.ID)

	_, err = s.svc.Auth.Authenticate(s.ctx, login.Token)
	s.ErrorIs(err, apperrors.ErrUnauthorized)

	next, err := s.svc.Auth.Authenticate(s.ctx, refreshed.Token)
	s.Require().NoError(err)
	s.Equal(sess.UserID, next.UserID)
	s.NotEqual(sess.TokenID, next.TokenID)

	_, err = s.svc.Auth.Refresh(s.ctx, models.Session{UserID: primitive.NewObjectID(), TokenID: "gone", ExpiresAt: s.now.Add(time.Hour)})
	s.ErrorIs(err, apperrors.ErrUnauthorized)
}
