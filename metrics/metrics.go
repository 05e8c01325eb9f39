package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "club_registrations_total", Help: "Registrations committed, by mode (create_team, join_team, solo)"},
		[]string{"mode"},
	)
	RegistrationRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "club_registration_rejections_total", Help: "Registrations refused, by error code"},
		[]string{"code"},
	)
	CheckpointSubmissions = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "club_checkpoint_submissions_total", Help: "Checkpoint submissions and resubmissions"},
	)
	CheckpointReviews = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "club_checkpoint_reviews_total", Help: "Checkpoint reviews, by outcome"},
		[]string{"outcome"},
	)
	XPGranted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "club_xp_granted_total", Help: "Total XP granted through approved checkpoints"},
	)
	MemberSyncUpserts = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "club_member_sync_upserts_total", Help: "Users upserted by the member sync worker"},
	)
)

func Register() {
	prometheus.MustRegister(
		Registrations,
		RegistrationRejections,
		CheckpointSubmissions,
		CheckpointReviews,
		XPGranted,
		MemberSyncUpserts,
	)
}
